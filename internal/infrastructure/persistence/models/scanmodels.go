package models

type VulnScanModel struct {
	ID             string   `gorm:"primaryKey;size:36"`
	IP             string   `gorm:"size:45;not null"`
	IPInt          uint32   `gorm:"not null;index"`
	Port           int      `gorm:"not null;index"`
	Protocol       string   `gorm:"size:10;not null"`
	Source         string   `gorm:"size:50;not null;index"`
	SourceID       int      `gorm:"not null;index"`
	Name           string   `gorm:"size:255;not null"`
	Severity       int      `gorm:"not null"`
	CVSSBaseScore  float64  `gorm:"not null"`
	CVSS3BaseScore *float64 ``
	CVE            *string  `gorm:"size:20;index"`
	VPRScore       *float64 ``
	Owner          string   `gorm:"size:100;not null"`
	Time           int64    `gorm:"not null"`
	Latest         bool     `gorm:"not null;index"`
}

func (VulnScanModel) TableName() string {
	return "vuln_scans"
}

type PortScanModel struct {
	ID       string `gorm:"primaryKey;size:36"`
	IP       string `gorm:"size:45;not null"`
	IPInt    uint32 `gorm:"not null;index"`
	Port     int    `gorm:"not null;index"`
	Protocol string `gorm:"size:10;not null"`
	Source   string `gorm:"size:50;not null"`
	SourceID int    `gorm:"not null"`
	Name     string `gorm:"size:255;not null"`
	Service  string `gorm:"size:100"`
	State    string `gorm:"size:20;not null"`
	Owner    string `gorm:"size:100;not null"`
	Time     int64  `gorm:"not null"`
	Latest   bool   `gorm:"not null;index"`
}

func (PortScanModel) TableName() string {
	return "port_scans"
}

type HostScanModel struct {
	ID     string `gorm:"primaryKey;size:36"`
	IP     string `gorm:"size:45;not null"`
	IPInt  uint32 `gorm:"not null;index"`
	Up     bool   `gorm:"not null"`
	Time   int64  `gorm:"not null"`
	Latest bool   `gorm:"not null;index"`
}

func (HostScanModel) TableName() string {
	return "host_scans"
}
