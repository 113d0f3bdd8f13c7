package notification

import (
	"fmt"
	"time"

	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// Notification is a pending-notification record raised for a ticket. It is
// created by reconciliation and never mutated here; the external report
// generator fills generated_for as it renders output for each owner.
type Notification struct {
	id           uint
	ticketID     uint
	ticketOwner  string
	generatedFor []string
	createdAt    time.Time
}

func NewNotification(ticketID uint, ticketOwner string) (*Notification, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if ticketOwner == "" {
		return nil, fmt.Errorf("ticket owner is required")
	}
	return &Notification{
		ticketID:     ticketID,
		ticketOwner:  ticketOwner,
		generatedFor: []string{},
		createdAt:    timeutil.NowUTC(),
	}, nil
}

func ReconstructNotification(id, ticketID uint, ticketOwner string, generatedFor []string, createdAt time.Time) (*Notification, error) {
	if id == 0 {
		return nil, fmt.Errorf("notification ID cannot be zero")
	}
	if generatedFor == nil {
		generatedFor = []string{}
	}
	return &Notification{
		id:           id,
		ticketID:     ticketID,
		ticketOwner:  ticketOwner,
		generatedFor: generatedFor,
		createdAt:    timeutil.ToUTC(createdAt),
	}, nil
}

func (n *Notification) ID() uint {
	return n.id
}

func (n *Notification) TicketID() uint {
	return n.ticketID
}

func (n *Notification) TicketOwner() string {
	return n.ticketOwner
}

func (n *Notification) GeneratedFor() []string {
	out := make([]string, len(n.generatedFor))
	copy(out, n.generatedFor)
	return out
}

func (n *Notification) CreatedAt() time.Time {
	return n.createdAt
}

func (n *Notification) SetID(id uint) error {
	if n.id != 0 {
		return fmt.Errorf("notification ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("notification ID cannot be zero")
	}
	n.id = id
	return nil
}
