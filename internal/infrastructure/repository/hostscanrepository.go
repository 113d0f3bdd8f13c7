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

type HostScanRepository struct {
	db     *gorm.DB
	mapper mappers.ScanMapper
}

func NewHostScanRepository(db *gorm.DB) *HostScanRepository {
	return &HostScanRepository{
		db:     db,
		mapper: mappers.NewScanMapper(),
	}
}

func (r *HostScanRepository) FindLatestByIPs(ctx context.Context, ipInts []uint32) ([]*scan.HostRecord, error) {
	if len(ipInts) == 0 {
		return nil, nil
	}
	tx := db.GetTxFromContext(ctx, r.db)

	var found []models.HostScanModel
	err := tx.
		Where("ip_int IN ? AND latest = ?", ipInts, true).
		Order("time ASC").
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find host scan records: %w", err)
	}

	records := make([]*scan.HostRecord, 0, len(found))
	for i := range found {
		rec, err := r.mapper.HostToDomain(&found[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *HostScanRepository) Save(ctx context.Context, rec *scan.HostRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	model := r.mapper.HostToModel(rec)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Save(model).Error; err != nil {
		return fmt.Errorf("failed to save host scan record: %w", err)
	}
	return nil
}
