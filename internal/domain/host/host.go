// Package host exposes the host directory the reconciliation core consults
// when opening tickets.
package host

import (
	"context"
	"net/netip"
)

// UnknownOwner is the sentinel owner assigned to hosts that could not be
// attributed. Tickets opened for such hosts are closed immediately.
const UnknownOwner = "UNKNOWN"

// Host is a directory entry for a scanned address.
type Host struct {
	IP    netip.Addr
	Owner string
	Loc   *string
}

// Repository looks up host records. A missing host yields (nil, nil); the
// caller proceeds without a location.
type Repository interface {
	GetByIP(ctx context.Context, ip netip.Addr) (*Host, error)
}
