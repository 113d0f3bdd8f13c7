// Package iputil provides IPv4 helpers for scan scopes: parsing, numeric
// conversion for range queries, and a small set type with the membership and
// difference operations scope reconciliation needs.
package iputil

import (
	"fmt"
	"net/netip"
	"sort"
)

// ParseAddr parses an IPv4 address in dotted-quad form.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid IP address %q: %w", s, err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("address %q is not IPv4", s)
	}
	return addr, nil
}

// AddrToUint32 converts an IPv4 address to its numeric form, the
// representation the persistence layer indexes for range membership.
func AddrToUint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Uint32ToAddr converts a stored numeric IP back to an address.
func Uint32ToAddr(n uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
}

// Set is an unordered collection of IPv4 addresses.
type Set struct {
	m map[netip.Addr]struct{}
}

// NewSet creates a set containing the given addresses.
func NewSet(addrs ...netip.Addr) *Set {
	s := &Set{m: make(map[netip.Addr]struct{}, len(addrs))}
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// Add inserts an address into the set.
func (s *Set) Add(addr netip.Addr) {
	s.m[addr] = struct{}{}
}

// AddPrefix inserts every address covered by the prefix.
func (s *Set) AddPrefix(prefix netip.Prefix) {
	for addr := prefix.Masked().Addr(); prefix.Contains(addr); addr = addr.Next() {
		s.Add(addr)
	}
}

// Contains reports whether addr is in the set.
func (s *Set) Contains(addr netip.Addr) bool {
	_, ok := s.m[addr]
	return ok
}

// Len returns the number of addresses in the set.
func (s *Set) Len() int {
	return len(s.m)
}

// Difference returns the addresses in s that are not in other.
func (s *Set) Difference(other *Set) *Set {
	out := NewSet()
	for addr := range s.m {
		if !other.Contains(addr) {
			out.Add(addr)
		}
	}
	return out
}

// Addrs returns the addresses in ascending order.
func (s *Set) Addrs() []netip.Addr {
	addrs := make([]netip.Addr, 0, len(s.m))
	for a := range s.m {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs
}

// Uint32s returns the numeric forms of the addresses in ascending order.
func (s *Set) Uint32s() []uint32 {
	addrs := s.Addrs()
	out := make([]uint32, len(addrs))
	for i, a := range addrs {
		out[i] = AddrToUint32(a)
	}
	return out
}
