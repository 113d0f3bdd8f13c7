package models

type HostModel struct {
	ID        uint    `gorm:"primaryKey"`
	IP        string  `gorm:"size:45;uniqueIndex;not null"`
	IPInt     uint32  `gorm:"uniqueIndex;not null"`
	Owner     string  `gorm:"size:100;not null"`
	Loc       *string `gorm:"size:50"`
	CreatedAt int64   `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt int64   `gorm:"autoUpdateTime:milli;not null"`
}

func (HostModel) TableName() string {
	return "hosts"
}
