package usecases

import (
	"context"
	"fmt"

	"github.com/argus-sec/argus/internal/application/reconcile"
	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	"github.com/argus-sec/argus/internal/shared/db"
	"github.com/argus-sec/argus/internal/shared/logger"
)

type ReconcileHostScanCommand struct {
	IPs        []string
	ManualScan bool
}

// ReconcileHostScanUseCase drives one host-liveness reconciliation run over
// the latest stored liveness records. It only ever closes tickets.
type ReconcileHostScanUseCase struct {
	tickets     ticket.Repository
	vulnRecords scan.VulnRecordRepository
	hostRecords scan.HostRecordRepository
	txMgr       *db.TransactionManager
	metrics     *metrics.Metrics
	logger      logger.Interface
}

func NewReconcileHostScanUseCase(
	tickets ticket.Repository,
	vulnRecords scan.VulnRecordRepository,
	hostRecords scan.HostRecordRepository,
	txMgr *db.TransactionManager,
	m *metrics.Metrics,
	log logger.Interface,
) *ReconcileHostScanUseCase {
	return &ReconcileHostScanUseCase{
		tickets:     tickets,
		vulnRecords: vulnRecords,
		hostRecords: hostRecords,
		txMgr:       txMgr,
		metrics:     m,
		logger:      log,
	}
}

func (uc *ReconcileHostScanUseCase) Execute(ctx context.Context, cmd ReconcileHostScanCommand) (*ReconcileResult, error) {
	ips, err := parseScopeIPs(cmd.IPs)
	if err != nil {
		return nil, err
	}

	mgr := reconcile.NewHostTicketManager(
		uc.tickets, uc.vulnRecords, uc.metrics, uc.logger, cmd.ManualScan,
	)
	mgr.SetIPs(ips)

	up := 0
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		observations, err := uc.hostRecords.FindLatestByIPs(txCtx, ips.Uint32s())
		if err != nil {
			return fmt.Errorf("failed to load host liveness records: %w", err)
		}

		for _, rec := range observations {
			if rec.Up {
				mgr.IPUp(rec.IP)
				up++
			}
		}
		if err := mgr.CloseTickets(txCtx); err != nil {
			return err
		}
		return mgr.ClearLatestFlags(txCtx)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("host reconciliation completed",
		"scope_ips", ips.Len(), "hosts_up", up)
	return &ReconcileResult{Findings: up, Scope: ips.Len()}, nil
}
