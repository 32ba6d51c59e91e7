// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package layout

import (
	"testing"

	"github.com/JoePelz/SAM/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestRootGrid(t *testing.T) {
	g := Root(0)
	assert.Equal(t, -331776.0, g.X)
	assert.Equal(t, -331776.0, g.Y)
	assert.Equal(t, 20736.0, g.Radius)

	// ip8 = 17 -> kx=1, ky=1
	g17 := Root(17)
	assert.InDelta(t, 331776.0*1/7.5-331776, g17.X, 1e-9)
	assert.InDelta(t, 331776.0*1/7.5-331776, g17.Y, 1e-9)
}

func TestChildDeterministic(t *testing.T) {
	parent := Root(10)
	idx := ChildIndex(0x0a0b0c0d, schema.Subnet16)
	g1 := Child(parent, idx)
	g2 := Child(parent, idx)
	assert.Equal(t, g1, g2, "identical inputs must yield identical geometry (I2)")
	assert.InDelta(t, parent.Radius/24, g1.Radius, 1e-9)
}

func TestChildIndexLevels(t *testing.T) {
	ip := uint32(0x0a0b0c0d) // 10.11.12.13
	assert.EqualValues(t, 11, ChildIndex(ip, schema.Subnet16))
	assert.EqualValues(t, 12, ChildIndex(ip, schema.Subnet24))
	assert.EqualValues(t, 13, ChildIndex(ip, schema.Subnet32))
	assert.EqualValues(t, 10, Root8(ip))
}
