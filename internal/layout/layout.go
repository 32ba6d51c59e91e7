// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package layout assigns deterministic coordinates and radii to nodes in
// the /8, /16, /24, /32 IPv4 tree. It is pure: given the same (ip, subnet,
// parent) it always returns the same geometry, satisfying I2.
package layout

import "github.com/JoePelz/SAM/pkg/schema"

// Geometry is a node's assigned position and extent.
type Geometry struct {
	X      float64
	Y      float64
	Radius float64
}

// rootRadius is the /8 plane's radius; children scale it down by /24 per
// level, matching the source's `parent.radius / 24`.
const rootRadius = 20736

// Root computes the geometry for a /8 node from its /8 index (ip >> 24).
// The /8 plane is a 16x16 grid: x/y both run from -331776 to +331776
// as ip8 sweeps 0..255.
func Root(ip8 uint32) Geometry {
	kx := ip8 % 16
	ky := ip8 / 16
	return Geometry{
		X:      331776*float64(kx)/7.5 - 331776,
		Y:      331776*float64(ky)/7.5 - 331776,
		Radius: rootRadius,
	}
}

// Child computes a node's geometry from its index within its parent (the
// byte of ip immediately below the parent's own prefix) and the parent's
// already-assigned geometry. Radius scaling (parent.Radius/24) is uniform
// across the /16, /24, and /32 levels, so the child's own subnet level
// never needs to be passed in.
func Child(parent Geometry, index uint32) Geometry {
	kx := index % 16
	ky := index / 16
	return Geometry{
		X:      parent.X + parent.Radius*(float64(kx)/7.5-1),
		Y:      parent.Y + parent.Radius*(float64(ky)/7.5-1),
		Radius: parent.Radius / 24,
	}
}

// ChildIndex extracts a child's index within its parent: the 8 bits of ip
// immediately above the child's own prefix width.
func ChildIndex(ip uint32, childSubnet schema.Subnet) uint32 {
	shift := 32 - uint(childSubnet)
	return (ip >> shift) % 256
}

// Root8 extracts the /8 index of ip, i.e. its first octet.
func Root8(ip uint32) uint32 {
	return ip >> 24
}
