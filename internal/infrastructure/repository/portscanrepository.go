package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/mappers"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	db "github.com/argus-sec/argus/internal/shared/db"
)

type PortScanRepository struct {
	db     *gorm.DB
	mapper mappers.ScanMapper
}

func NewPortScanRepository(db *gorm.DB) *PortScanRepository {
	return &PortScanRepository{
		db:     db,
		mapper: mappers.NewScanMapper(),
	}
}

func (r *PortScanRepository) FindLatestByIPs(ctx context.Context, ipInts []uint32) ([]*scan.PortRecord, error) {
	if len(ipInts) == 0 {
		return nil, nil
	}
	tx := db.GetTxFromContext(ctx, r.db)

	var found []models.PortScanModel
	err := tx.
		Where("ip_int IN ? AND latest = ?", ipInts, true).
		Order("time ASC").
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find port scan records: %w", err)
	}

	records := make([]*scan.PortRecord, 0, len(found))
	for i := range found {
		rec, err := r.mapper.PortToDomain(&found[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *PortScanRepository) Save(ctx context.Context, rec *scan.PortRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	model := r.mapper.PortToModel(rec)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Save(model).Error; err != nil {
		return fmt.Errorf("failed to save port scan record: %w", err)
	}
	return nil
}
