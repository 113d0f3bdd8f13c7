package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// NotificationMapper handles the conversion between Notification domain
// entities and persistence models.
type NotificationMapper interface {
	ToModel(n *notification.Notification) (*models.NotificationModel, error)
	ToDomain(model *models.NotificationModel) (*notification.Notification, error)
}

// NotificationMapperImpl is the concrete implementation of NotificationMapper.
type NotificationMapperImpl struct{}

// NewNotificationMapper creates a new NotificationMapper.
func NewNotificationMapper() NotificationMapper {
	return &NotificationMapperImpl{}
}

func (m *NotificationMapperImpl) ToModel(n *notification.Notification) (*models.NotificationModel, error) {
	generatedForJSON, err := json.Marshal(n.GeneratedFor())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated_for: %w", err)
	}
	return &models.NotificationModel{
		ID:           n.ID(),
		TicketID:     n.TicketID(),
		TicketOwner:  n.TicketOwner(),
		GeneratedFor: generatedForJSON,
	}, nil
}

func (m *NotificationMapperImpl) ToDomain(model *models.NotificationModel) (*notification.Notification, error) {
	var generatedFor []string
	if err := json.Unmarshal(model.GeneratedFor, &generatedFor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generated_for (id=%d): %w", model.ID, err)
	}
	return notification.ReconstructNotification(
		model.ID,
		model.TicketID,
		model.TicketOwner,
		generatedFor,
		timeutil.FromUnixMilli(model.CreatedAt),
	)
}
