package scan

import "context"

// VulnRecordFilter selects vulnerability scan records. Nil slices mean "any
// value" for that dimension.
type VulnRecordFilter struct {
	IPInts     []uint32
	Ports      []int
	Source     string
	SourceIDs  []int
	Latest     bool
	ExcludeIDs []string
}

// VulnRecordRepository stores vulnerability scan records.
type VulnRecordRepository interface {
	Find(ctx context.Context, filter VulnRecordFilter) ([]*VulnRecord, error)
	Save(ctx context.Context, rec *VulnRecord) error
}

// PortRecordRepository stores port scan records.
type PortRecordRepository interface {
	FindLatestByIPs(ctx context.Context, ipInts []uint32) ([]*PortRecord, error)
	Save(ctx context.Context, rec *PortRecord) error
}

// HostRecordRepository stores host liveness records.
type HostRecordRepository interface {
	FindLatestByIPs(ctx context.Context, ipInts []uint32) ([]*HostRecord, error)
	Save(ctx context.Context, rec *HostRecord) error
}
