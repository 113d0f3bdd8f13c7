package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/mappers"
	db "github.com/argus-sec/argus/internal/shared/db"
)

type NotificationRepository struct {
	db     *gorm.DB
	mapper mappers.NotificationMapper
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		mapper: mappers.NewNotificationMapper(),
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	model, err := r.mapper.ToModel(n)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return n.SetID(model.ID)
}
