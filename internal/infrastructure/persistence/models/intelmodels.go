package models

type CVEModel struct {
	ID          string  `gorm:"primaryKey;size:20"`
	CVSSScore   float64 `gorm:"not null"`
	CVSSVersion string  `gorm:"size:5;not null"`
	Severity    int     `gorm:"not null"`
}

func (CVEModel) TableName() string {
	return "cves"
}

// KEVModel is a membership row in the known-exploited-vulnerability catalog.
type KEVModel struct {
	ID string `gorm:"primaryKey;size:20"`
}

func (KEVModel) TableName() string {
	return "kevs"
}
