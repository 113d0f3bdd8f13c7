package models

import "gorm.io/datatypes"

type NotificationModel struct {
	ID           uint           `gorm:"primaryKey"`
	TicketID     uint           `gorm:"not null;index"`
	TicketOwner  string         `gorm:"size:100;not null;index"`
	GeneratedFor datatypes.JSON `gorm:"not null"`
	CreatedAt    int64          `gorm:"autoCreateTime:milli;not null"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}
