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

type VulnScanRepository struct {
	db     *gorm.DB
	mapper mappers.ScanMapper
}

func NewVulnScanRepository(db *gorm.DB) *VulnScanRepository {
	return &VulnScanRepository{
		db:     db,
		mapper: mappers.NewScanMapper(),
	}
}

func (r *VulnScanRepository) Find(ctx context.Context, filter scan.VulnRecordFilter) ([]*scan.VulnRecord, error) {
	tx := db.GetTxFromContext(ctx, r.db).
		Model(&models.VulnScanModel{})

	if filter.IPInts != nil {
		tx = tx.Where("ip_int IN ?", filter.IPInts)
	}
	if filter.Ports != nil {
		tx = tx.Where("port IN ?", filter.Ports)
	}
	if filter.Source != "" {
		tx = tx.Where("source = ?", filter.Source)
	}
	if filter.SourceIDs != nil {
		tx = tx.Where("source_id IN ?", filter.SourceIDs)
	}
	if filter.Latest {
		tx = tx.Where("latest = ?", true)
	}
	if len(filter.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	var found []models.VulnScanModel
	if err := tx.Order("time ASC").Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to find vuln scan records: %w", err)
	}

	records := make([]*scan.VulnRecord, 0, len(found))
	for i := range found {
		rec, err := r.mapper.VulnToDomain(&found[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *VulnScanRepository) Save(ctx context.Context, rec *scan.VulnRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	model := r.mapper.VulnToModel(rec)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Save(model).Error; err != nil {
		return fmt.Errorf("failed to save vuln scan record: %w", err)
	}
	return nil
}
