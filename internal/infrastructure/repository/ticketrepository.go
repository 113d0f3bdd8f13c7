package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/mappers"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	db "github.com/argus-sec/argus/internal/shared/db"
	"github.com/argus-sec/argus/internal/shared/iputil"
)

type TicketRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
	}
}

func (r *TicketRepository) FindOpenByKey(ctx context.Context, key ticket.Key) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.
		Where("ip_int = ? AND port = ? AND protocol = ? AND source = ? AND source_id = ? AND open = ?",
			iputil.AddrToUint32(key.IP), key.Port, key.Protocol, key.Source, key.SourceID, true).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) FindClosedSince(ctx context.Context, key ticket.Key, closedAfter time.Time) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.
		Where("ip_int = ? AND port = ? AND protocol = ? AND source = ? AND source_id = ? AND open = ?",
			iputil.AddrToUint32(key.IP), key.Port, key.Protocol, key.Source, key.SourceID, false).
		Where("time_closed > ?", closedAfter.UnixMilli()).
		Order("time_closed DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find closed ticket: %w", err)
	}

	return r.mapper.ToDomain(&model)
}

func (r *TicketRepository) FindOpenInScope(ctx context.Context, filter ticket.OpenTicketFilter) ([]*ticket.Ticket, error) {
	tx := db.GetTxFromContext(ctx, r.db).
		Model(&models.TicketModel{}).
		Where("open = ?", true)

	if filter.IPInts != nil {
		tx = tx.Where("ip_int IN ?", filter.IPInts)
	}
	if filter.Ports != nil {
		tx = tx.Where("port IN ?", filter.Ports)
	}
	if filter.ExcludePortZero {
		tx = tx.Where("port <> ?", 0)
	}
	if filter.Protocols != nil {
		tx = tx.Where("protocol IN ?", filter.Protocols)
	}
	if filter.Source != "" {
		tx = tx.Where("source = ?", filter.Source)
	}
	if filter.SourceIDs != nil {
		tx = tx.Where("source_id IN ?", filter.SourceIDs)
	}
	if len(filter.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	var found []models.TicketModel
	if err := tx.Order("id ASC").Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find open tickets in scope: %w", err)
	}

	tickets := make([]*ticket.Ticket, 0, len(found))
	for i := range found {
		t, err := r.mapper.ToDomain(&found[i])
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (r *TicketRepository) Save(ctx context.Context, t *ticket.Ticket) error {
	model, err := r.mapper.ToModel(t)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if model.ID == 0 {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		return t.SetID(model.ID)
	}

	result := tx.
		Model(&models.TicketModel{}).
		Where("id = ?", model.ID).
		Select("Open", "FalsePositive", "FPEffective", "FPExpiration", "Owner", "Loc",
			"Details", "Events", "TimeOpened", "TimeClosed").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update ticket: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	return nil
}
