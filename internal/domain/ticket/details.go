package ticket

import "sort"

// DetailsKind tags the finding variant a details payload describes.
type DetailsKind string

const (
	KindVulnerability DetailsKind = "vulnerability"
	KindPort          DetailsKind = "port"
)

// Details is the finding-specific payload carried by a ticket. The two
// variants expose different key sets; delta computation runs over the union
// so a ticket changing shape still produces a complete change list.
type Details struct {
	Kind          DetailsKind `json:"kind"`
	Name          string      `json:"name"`
	Severity      int         `json:"severity"`
	CVE           *string     `json:"cve,omitempty"`
	CVSSBaseScore *float64    `json:"cvss_base_score,omitempty"`
	CVSSVersion   string      `json:"cvss_version,omitempty"`
	ScoreSource   string      `json:"score_source,omitempty"`
	KEV           bool        `json:"kev,omitempty"`
	VPRScore      *float64    `json:"vpr_score,omitempty"`
	Service       string      `json:"service,omitempty"`
}

// NewPortDetails builds the fixed-shape payload for a port finding.
// Port findings carry no CVSS/CVE data and always have severity 0.
func NewPortDetails(name, service string) Details {
	return Details{
		Kind:     KindPort,
		Name:     name,
		Service:  service,
		Severity: 0,
	}
}

// toMap flattens the payload into the variant's explicit key set.
// Optional numeric fields appear as nil so deltas against a populated value
// are reported.
func (d Details) toMap() map[string]interface{} {
	switch d.Kind {
	case KindPort:
		return map[string]interface{}{
			"cve":             nilableString(d.CVE),
			"cvss_base_score": nilableFloat(d.CVSSBaseScore),
			"name":            d.Name,
			"score_source":    nilEmpty(d.ScoreSource),
			"service":         d.Service,
			"severity":        d.Severity,
		}
	default:
		return map[string]interface{}{
			"cve":             nilableString(d.CVE),
			"cvss_base_score": nilableFloat(d.CVSSBaseScore),
			"cvss_version":    d.CVSSVersion,
			"kev":             d.KEV,
			"name":            d.Name,
			"score_source":    d.ScoreSource,
			"severity":        d.Severity,
			"vpr_score":       nilableFloat(d.VPRScore),
		}
	}
}

// Delta compares two details payloads key-by-key over the union of keys
// present in either side. A key whose values differ, including a key present
// in only one side, contributes exactly one entry.
func (d Details) Delta(next Details) []DeltaEntry {
	return computeDelta(d.toMap(), next.toMap())
}

func computeDelta(from, to map[string]interface{}) []DeltaEntry {
	keys := make(map[string]struct{}, len(from)+len(to))
	for k := range from {
		keys[k] = struct{}{}
	}
	for k := range to {
		keys[k] = struct{}{}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var delta []DeltaEntry
	for _, k := range ordered {
		v1 := from[k]
		v2 := to[k]
		if v1 != v2 {
			delta = append(delta, DeltaEntry{Key: k, From: v1, To: v2})
		}
	}
	return delta
}

func nilableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nilableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
