package usecases

import (
	"context"
	"fmt"

	"github.com/argus-sec/argus/internal/application/reconcile"
	"github.com/argus-sec/argus/internal/domain/host"
	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	"github.com/argus-sec/argus/internal/shared/db"
	"github.com/argus-sec/argus/internal/shared/logger"
)

type ReconcilePortScanCommand struct {
	IPs        []string
	Ports      []int
	Protocols  []string
	Reason     string
	ManualScan bool
}

// ReconcilePortScanUseCase drives one port reconciliation run over the
// latest stored port scan records.
type ReconcilePortScanUseCase struct {
	tickets       ticket.Repository
	vulnRecords   scan.VulnRecordRepository
	portRecords   scan.PortRecordRepository
	hosts         host.Repository
	notifications notification.Repository
	txMgr         *db.TransactionManager
	metrics       *metrics.Metrics
	logger        logger.Interface
	reopenDays    int
}

func NewReconcilePortScanUseCase(
	tickets ticket.Repository,
	vulnRecords scan.VulnRecordRepository,
	portRecords scan.PortRecordRepository,
	hosts host.Repository,
	notifications notification.Repository,
	txMgr *db.TransactionManager,
	m *metrics.Metrics,
	log logger.Interface,
	reopenDays int,
) *ReconcilePortScanUseCase {
	return &ReconcilePortScanUseCase{
		tickets:       tickets,
		vulnRecords:   vulnRecords,
		portRecords:   portRecords,
		hosts:         hosts,
		notifications: notifications,
		txMgr:         txMgr,
		metrics:       m,
		logger:        log,
		reopenDays:    reopenDays,
	}
}

func (uc *ReconcilePortScanUseCase) Execute(ctx context.Context, cmd ReconcilePortScanCommand) (*ReconcileResult, error) {
	if cmd.Reason == "" {
		cmd.Reason = "port open"
	}

	ips, err := parseScopeIPs(cmd.IPs)
	if err != nil {
		return nil, err
	}

	mgr := reconcile.NewPortTicketManager(
		uc.tickets, uc.vulnRecords, uc.hosts, uc.notifications,
		uc.metrics, uc.logger, cmd.Protocols, uc.reopenDays, cmd.ManualScan,
	)
	mgr.SetIPs(ips)
	mgr.SetPorts(cmd.Ports)

	open := 0
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		findings, err := uc.portRecords.FindLatestByIPs(txCtx, ips.Uint32s())
		if err != nil {
			return fmt.Errorf("failed to load port findings: %w", err)
		}

		for _, rec := range findings {
			// Scanners also record closed and filtered ports; only an
			// open port is a finding.
			if rec.State != scan.PortStateOpen {
				continue
			}
			if err := mgr.OpenTicket(txCtx, rec, cmd.Reason); err != nil {
				return err
			}
			open++
		}
		if err := mgr.CloseTickets(txCtx); err != nil {
			return err
		}
		return mgr.ClearLatestFlags(txCtx)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("port reconciliation completed",
		"findings", open, "scope_ips", ips.Len())
	return &ReconcileResult{Findings: open, Scope: ips.Len()}, nil
}
