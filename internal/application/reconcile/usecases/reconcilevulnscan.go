package usecases

import (
	"context"
	"fmt"

	"github.com/argus-sec/argus/internal/application/reconcile"
	"github.com/argus-sec/argus/internal/domain/host"
	"github.com/argus-sec/argus/internal/domain/intel"
	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	"github.com/argus-sec/argus/internal/shared/db"
	apperrors "github.com/argus-sec/argus/internal/shared/errors"
	"github.com/argus-sec/argus/internal/shared/logger"
)

type ReconcileVulnScanCommand struct {
	Source     string
	SourceIDs  []int
	IPs        []string
	Ports      []int
	Reason     string
	ManualScan bool
}

// ReconcileVulnScanUseCase drives one vulnerability reconciliation run over
// the latest stored scan records. A fresh manager is built per execution:
// scope and seen sets must never outlive a run.
type ReconcileVulnScanUseCase struct {
	tickets       ticket.Repository
	records       scan.VulnRecordRepository
	hosts         host.Repository
	intel         intel.Repository
	notifications notification.Repository
	txMgr         *db.TransactionManager
	metrics       *metrics.Metrics
	logger        logger.Interface
	reopenDays    int
}

func NewReconcileVulnScanUseCase(
	tickets ticket.Repository,
	records scan.VulnRecordRepository,
	hosts host.Repository,
	intelRepo intel.Repository,
	notifications notification.Repository,
	txMgr *db.TransactionManager,
	m *metrics.Metrics,
	log logger.Interface,
	reopenDays int,
) *ReconcileVulnScanUseCase {
	return &ReconcileVulnScanUseCase{
		tickets:       tickets,
		records:       records,
		hosts:         hosts,
		intel:         intelRepo,
		notifications: notifications,
		txMgr:         txMgr,
		metrics:       m,
		logger:        log,
		reopenDays:    reopenDays,
	}
}

func (uc *ReconcileVulnScanUseCase) Execute(ctx context.Context, cmd ReconcileVulnScanCommand) (*ReconcileResult, error) {
	if cmd.Source == "" {
		return nil, apperrors.NewValidationError("scan source is required")
	}
	if cmd.Reason == "" {
		cmd.Reason = "vulnerability detected"
	}

	ips, err := parseScopeIPs(cmd.IPs)
	if err != nil {
		return nil, err
	}

	mgr := reconcile.NewVulnTicketManager(
		uc.tickets, uc.records, uc.hosts, uc.intel, uc.notifications,
		uc.metrics, uc.logger, cmd.Source, uc.reopenDays, cmd.ManualScan,
	)
	mgr.SetIPs(ips)
	mgr.SetPorts(cmd.Ports)
	mgr.SetSourceIDs(cmd.SourceIDs)

	found := 0
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		findings, err := uc.records.Find(txCtx, scan.VulnRecordFilter{
			IPInts:    ips.Uint32s(),
			Ports:     append(append([]int{}, cmd.Ports...), 0),
			Source:    cmd.Source,
			SourceIDs: cmd.SourceIDs,
			Latest:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to load vulnerability findings: %w", err)
		}
		found = len(findings)

		for _, rec := range findings {
			if err := mgr.OpenTicket(txCtx, rec, cmd.Reason); err != nil {
				return err
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

	uc.logger.Infow("vulnerability reconciliation completed",
		"source", cmd.Source, "findings", found, "scope_ips", ips.Len())
	return &ReconcileResult{Findings: found, Scope: ips.Len()}, nil
}
