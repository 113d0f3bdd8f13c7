// Package intel defines the vulnerability-intelligence lookup contracts:
// authoritative CVE scoring and the known-exploited-vulnerability catalog.
package intel

import "context"

// ScoreSourceNVD identifies the intelligence source. When a ticket's score
// comes from here, the reported severity is taken as-is instead of being
// re-derived from the numeric score.
const ScoreSourceNVD = "nvd"

// CVERecord is the intelligence view of a CVE identifier.
type CVERecord struct {
	ID          string
	CVSSScore   float64
	CVSSVersion string
	Severity    int
}

// Repository resolves CVE identifiers. LookupCVE returns (nil, nil) for
// unknown identifiers; the caller keeps the scanner-reported values.
type Repository interface {
	LookupCVE(ctx context.Context, id string) (*CVERecord, error)
	IsKnownExploited(ctx context.Context, id string) (bool, error)
}
