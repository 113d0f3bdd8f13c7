package repository

import (
	"context"
	"fmt"
	"net/netip"

	"gorm.io/gorm"

	"github.com/argus-sec/argus/internal/domain/host"
	"github.com/argus-sec/argus/internal/infrastructure/persistence/models"
	db "github.com/argus-sec/argus/internal/shared/db"
	"github.com/argus-sec/argus/internal/shared/iputil"
)

type HostRepository struct {
	db *gorm.DB
}

func NewHostRepository(db *gorm.DB) *HostRepository {
	return &HostRepository{db: db}
}

func (r *HostRepository) GetByIP(ctx context.Context, ip netip.Addr) (*host.Host, error) {
	var model models.HostModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.
		Where("ip_int = ?", iputil.AddrToUint32(ip)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find host: %w", err)
	}

	addr, err := iputil.ParseAddr(model.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host IP (id=%d): %w", model.ID, err)
	}
	return &host.Host{
		IP:    addr,
		Owner: model.Owner,
		Loc:   model.Loc,
	}, nil
}
