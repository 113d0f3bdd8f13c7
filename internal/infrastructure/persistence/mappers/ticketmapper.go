package mappers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	"github.com/argus-sec/argus/internal/shared/iputil"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// TicketMapper handles the conversion between Ticket domain entities and
// persistence models.
type TicketMapper interface {
	// ToModel converts a ticket domain entity to a persistence model.
	ToModel(t *ticket.Ticket) (*models.TicketModel, error)

	// ToDomain converts a ticket persistence model to a domain entity.
	ToDomain(model *models.TicketModel) (*ticket.Ticket, error)
}

// TicketMapperImpl is the concrete implementation of TicketMapper.
type TicketMapperImpl struct{}

// NewTicketMapper creates a new TicketMapper.
func NewTicketMapper() TicketMapper {
	return &TicketMapperImpl{}
}

// ToModel converts a ticket domain entity to a persistence model.
func (m *TicketMapperImpl) ToModel(t *ticket.Ticket) (*models.TicketModel, error) {
	key := t.Key()

	detailsJSON, err := json.Marshal(t.Details())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket details: %w", err)
	}
	eventsJSON, err := json.Marshal(t.Events())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket events: %w", err)
	}

	model := &models.TicketModel{
		ID:            t.ID(),
		IP:            key.IP.String(),
		IPInt:         iputil.AddrToUint32(key.IP),
		Port:          key.Port,
		Protocol:      key.Protocol,
		Source:        key.Source,
		SourceID:      key.SourceID,
		Open:          t.Open(),
		FalsePositive: t.FalsePositive(),
		Owner:         t.Owner(),
		Loc:           t.Loc(),
		Details:       detailsJSON,
		Events:        eventsJSON,
		TimeOpened:    t.TimeOpened().UnixMilli(),
	}

	if effective, expiration := t.FalsePositiveDates(); effective != nil {
		eff := effective.UnixMilli()
		model.FPEffective = &eff
		if expiration != nil {
			exp := expiration.UnixMilli()
			model.FPExpiration = &exp
		}
	}

	if t.TimeClosed() != nil {
		closed := t.TimeClosed().UnixMilli()
		model.TimeClosed = &closed
	}

	return model, nil
}

// ToDomain converts a ticket persistence model to a domain entity.
func (m *TicketMapperImpl) ToDomain(model *models.TicketModel) (*ticket.Ticket, error) {
	addr, err := iputil.ParseAddr(model.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticket IP (id=%d): %w", model.ID, err)
	}

	var details ticket.Details
	if err := json.Unmarshal(model.Details, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket details (id=%d): %w", model.ID, err)
	}

	var events []ticket.Event
	if err := json.Unmarshal(model.Events, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket events (id=%d): %w", model.ID, err)
	}

	var fpEffective, fpExpiration, timeClosed *time.Time
	if model.FPEffective != nil {
		t := timeutil.FromUnixMilli(*model.FPEffective)
		fpEffective = &t
	}
	if model.FPExpiration != nil {
		t := timeutil.FromUnixMilli(*model.FPExpiration)
		fpExpiration = &t
	}
	if model.TimeClosed != nil {
		t := timeutil.FromUnixMilli(*model.TimeClosed)
		timeClosed = &t
	}

	return ticket.ReconstructTicket(
		model.ID,
		ticket.Key{
			IP:       addr,
			Port:     model.Port,
			Protocol: model.Protocol,
			Source:   model.Source,
			SourceID: model.SourceID,
		},
		model.Open,
		model.FalsePositive,
		fpEffective, fpExpiration,
		model.Owner,
		model.Loc,
		details,
		timeutil.FromUnixMilli(model.TimeOpened),
		timeClosed,
		events,
	)
}
