package models

import "gorm.io/datatypes"

type TicketModel struct {
	ID            uint           `gorm:"primaryKey"`
	IP            string         `gorm:"size:45;not null;index:idx_ticket_key"`
	IPInt         uint32         `gorm:"not null;index"`
	Port          int            `gorm:"not null;index:idx_ticket_key"`
	Protocol      string         `gorm:"size:10;not null;index:idx_ticket_key"`
	Source        string         `gorm:"size:50;not null;index:idx_ticket_key"`
	SourceID      int            `gorm:"not null;index:idx_ticket_key"`
	Open          bool           `gorm:"not null;index"`
	FalsePositive bool           `gorm:"not null;default:false"`
	FPEffective   *int64         ``
	FPExpiration  *int64         ``
	Owner         string         `gorm:"size:100;not null;index"`
	Loc           *string        `gorm:"size:50"`
	Details       datatypes.JSON `gorm:"not null"`
	Events        datatypes.JSON `gorm:"not null"`
	TimeOpened    int64          `gorm:"not null"`
	TimeClosed    *int64         `gorm:"index"`
	CreatedAt     int64          `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt     int64          `gorm:"autoUpdateTime:milli;not null"`

	// Note: No foreign key constraints or associations.
	// All relationships are managed by application business logic.
}

func (TicketModel) TableName() string {
	return "tickets"
}
