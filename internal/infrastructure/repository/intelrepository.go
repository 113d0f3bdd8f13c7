package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/argus-sec/argus/internal/domain/intel"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	db "github.com/argus-sec/argus/internal/shared/db"
)

type IntelRepository struct {
	db *gorm.DB
}

func NewIntelRepository(db *gorm.DB) *IntelRepository {
	return &IntelRepository{db: db}
}

func (r *IntelRepository) LookupCVE(ctx context.Context, id string) (*intel.CVERecord, error) {
	var model models.CVEModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up CVE: %w", err)
	}

	return &intel.CVERecord{
		ID:          model.ID,
		CVSSScore:   model.CVSSScore,
		CVSSVersion: model.CVSSVersion,
		Severity:    model.Severity,
	}, nil
}

func (r *IntelRepository) IsKnownExploited(ctx context.Context, id string) (bool, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var count int64
	err := tx.
		Model(&models.KEVModel{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up KEV entry: %w", err)
	}
	return count > 0, nil
}
