package migration

import (
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.TicketModel{},
		&models.VulnScanModel{},
		&models.PortScanModel{},
		&models.HostScanModel{},
		&models.HostModel{},
		&models.CVEModel{},
		&models.KEVModel{},
		&models.NotificationModel{},
	}
}
