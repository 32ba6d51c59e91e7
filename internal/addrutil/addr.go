// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package addrutil maps textual IPv4 addresses and prefixes to 32-bit
// integer ranges, and classifies a range back to a subnet level. It is
// pure: no I/O, no dependency on the store or the schema package beyond
// the Subnet type.
package addrutil

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/JoePelz/SAM/pkg/schema"
)

// Range is an inclusive [Start, End] span of 32-bit IPv4 addresses. A
// singleton host has Start == End.
type Range struct {
	Start uint32
	End   uint32
}

// Parse accepts three textual forms and returns the range they denote:
//
//   - a full dotted host, "192.168.2.100" -> a singleton range
//   - a truncated dotted prefix, "21.66" -> the /16 it implies
//     (octets given) * 8 bits each; this is the documented resolution of
//     the CIDR parser ambiguity: n octets imply a /(8n) prefix
//   - an explicit CIDR literal, "10.0.0.0/8"
//
// Any other input returns schema.ErrMalformedAddress.
func Parse(addr string) (Range, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Range{}, fmt.Errorf("%w: empty address", schema.ErrMalformedAddress)
	}

	if idx := strings.IndexByte(addr, '/'); idx >= 0 {
		return parseCIDR(addr)
	}

	return parseDotted(addr)
}

// parseDotted handles both full ("a.b.c.d") and truncated ("a.b") dotted
// forms. A truncated form with n octets (1 <= n <= 3) is a /(8n) prefix
// with the missing octets assumed to be zero; four octets is a singleton
// host.
func parseDotted(addr string) (Range, error) {
	parts := strings.Split(addr, ".")
	if len(parts) == 0 || len(parts) > 4 {
		return Range{}, fmt.Errorf("%w: %q", schema.ErrMalformedAddress, addr)
	}

	var octets [4]uint32
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q: %s", schema.ErrMalformedAddress, addr, err.Error())
		}
		octets[i] = uint32(v)
	}

	ipstart := octets[0]<<24 | octets[1]<<16 | octets[2]<<8 | octets[3]

	if len(parts) == 4 {
		return Range{Start: ipstart, End: ipstart}, nil
	}

	prefixLen := uint(len(parts) * 8)
	return rangeFromPrefix(ipstart, prefixLen), nil
}

// parseCIDR handles "a.b.c.d/n" literals.
func parseCIDR(addr string) (Range, error) {
	idx := strings.IndexByte(addr, '/')
	base, lenStr := addr[:idx], addr[idx+1:]

	prefixLen, err := strconv.ParseUint(lenStr, 10, 8)
	if err != nil || prefixLen > 32 {
		return Range{}, fmt.Errorf("%w: bad prefix length in %q", schema.ErrMalformedAddress, addr)
	}

	baseRange, err := parseDotted(base)
	if err != nil {
		return Range{}, err
	}

	return rangeFromPrefix(baseRange.Start, uint(prefixLen)), nil
}

// rangeFromPrefix masks ip down to a prefix of length prefixLen and
// returns the full range that prefix covers.
func rangeFromPrefix(ip uint32, prefixLen uint) Range {
	if prefixLen >= 32 {
		return Range{Start: ip, End: ip}
	}

	hostBits := 32 - prefixLen
	mask := ^uint32(0) << hostBits
	start := ip & mask
	end := start | (^mask)
	return Range{Start: start, End: end}
}

// Dotted renders a 32-bit address in dotted-decimal form.
func Dotted(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ip>>24&0xff, ip>>16&0xff, ip>>8&0xff, ip&0xff)
}

// ClassifySubnet maps a range's width to a subnet level:
// diff > 2^24-1 -> /8; > 2^16-1 -> /16; > 2^8-1 -> /24; > 0 -> /24 (any
// range strictly inside a /24 still has /24 parents); == 0 -> /32.
func ClassifySubnet(r Range) schema.Subnet {
	diff := r.End - r.Start
	switch {
	case diff > 16777215:
		return schema.Subnet8
	case diff > 65535:
		return schema.Subnet16
	case diff > 255:
		return schema.Subnet24
	case diff > 0:
		return schema.Subnet24
	default:
		return schema.Subnet32
	}
}

// TruncateToLevel masks ip down to the start of the range covering it at
// subnet level l, and returns that range.
func TruncateToLevel(ip uint32, l schema.Subnet) Range {
	return rangeFromPrefix(ip, uint(l))
}

// Prefix converts an address and a subnet level to a net/netip.Prefix,
// for callers (the node cache) that index ranges with gaissmai/bart.
func Prefix(ip uint32, l schema.Subnet) netip.Prefix {
	a := netip.AddrFrom4([4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)})
	return netip.PrefixFrom(a, int(l))
}

// Addr converts a 32-bit address to a net/netip.Addr.
func Addr(ip uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)})
}
