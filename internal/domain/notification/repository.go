package notification

import "context"

// Repository is the notification sink. Create is fire-and-forget persistence
// of a pending-notification record.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
}
