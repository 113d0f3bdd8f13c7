package ticket

import (
	"context"
	"time"
)

// OpenTicketFilter selects open tickets inside a run's scope. Nil slices mean
// "any value" for that dimension.
type OpenTicketFilter struct {
	IPInts          []uint32
	Ports           []int
	ExcludePortZero bool
	Protocols       []string
	Source          string
	SourceIDs       []int
	ExcludeIDs      []uint
}

// Repository is the ticket store contract. Lookups return (nil, nil) when no
// ticket matches.
type Repository interface {
	// FindOpenByKey returns the single open ticket at the identity key.
	FindOpenByKey(ctx context.Context, key Key) (*Ticket, error)

	// FindClosedSince returns the most recently closed ticket at the key
	// whose time_closed is strictly after closedAfter.
	FindClosedSince(ctx context.Context, key Key, closedAfter time.Time) (*Ticket, error)

	// FindOpenInScope returns all open tickets matching the filter.
	FindOpenInScope(ctx context.Context, filter OpenTicketFilter) ([]*Ticket, error)

	// Save persists the ticket, creating it when it has no id yet.
	Save(ctx context.Context, t *Ticket) error
}
