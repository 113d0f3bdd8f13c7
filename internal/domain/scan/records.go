// Package scan defines the scan-record inputs produced by the scanning
// subsystem. Records are read-only to the reconciliation core except for the
// latest flag, which reconciliation clears when a record no longer
// corresponds to reality.
package scan

import (
	"net/netip"
	"time"
)

// VulnRecord is a single vulnerability finding from a vulnerability scan.
type VulnRecord struct {
	ID             string
	IP             netip.Addr
	Port           int
	Protocol       string
	Source         string
	SourceID       int
	Name           string
	Severity       int
	CVSSBaseScore  float64
	CVSS3BaseScore *float64
	CVE            *string
	VPRScore       *float64
	Owner          string
	Time           time.Time
	Latest         bool
}

// PortStateOpen is the scanner state of a port observed open. Records in
// any other state (closed, filtered) carry no finding.
const PortStateOpen = "open"

// PortRecord is a single port observation from a port scan.
type PortRecord struct {
	ID       string
	IP       netip.Addr
	Port     int
	Protocol string
	Source   string
	SourceID int
	Name     string
	Service  string
	State    string
	Owner    string
	Time     time.Time
	Latest   bool
}

// HostRecord is a host liveness observation from a network sweep.
type HostRecord struct {
	ID     string
	IP     netip.Addr
	Up     bool
	Time   time.Time
	Latest bool
}
