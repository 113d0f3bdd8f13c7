package usecases

import (
	"net/netip"
	"strings"

	apperrors "github.com/argus-sec/argus/internal/shared/errors"
	"github.com/argus-sec/argus/internal/shared/iputil"
)

// parseScopeIPs expands a mixed list of addresses and CIDR prefixes into an
// IP set.
func parseScopeIPs(specs []string) (*iputil.Set, error) {
	set := iputil.NewSet()
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		if strings.Contains(spec, "/") {
			prefix, err := netip.ParsePrefix(spec)
			if err != nil {
				return nil, apperrors.NewValidationError("invalid CIDR in scope", spec)
			}
			set.AddPrefix(prefix)
			continue
		}
		addr, err := iputil.ParseAddr(spec)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid IP in scope", spec)
		}
		set.Add(addr)
	}
	return set, nil
}

// ReconcileResult summarizes one reconciliation run.
type ReconcileResult struct {
	Findings int
	Scope    int
}
