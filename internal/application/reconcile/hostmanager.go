package reconcile

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	apperrors "github.com/argus-sec/argus/internal/shared/errors"
	"github.com/argus-sec/argus/internal/shared/iputil"
	"github.com/argus-sec/argus/internal/shared/logger"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// HostTicketManager reconciles tickets against host liveness only. It never
// opens tickets: hosts that were scanned but never observed up have all
// their open tickets closed.
type HostTicketManager struct {
	tickets ticket.Repository
	records scan.VulnRecordRepository
	metrics *metrics.Metrics
	logger  logger.Interface

	manualScan bool
	ips        *iputil.Set
	seenIPs    *iputil.Set
}

func NewHostTicketManager(
	tickets ticket.Repository,
	records scan.VulnRecordRepository,
	m *metrics.Metrics,
	log logger.Interface,
	manualScan bool,
) *HostTicketManager {
	return &HostTicketManager{
		tickets:    tickets,
		records:    records,
		metrics:    m,
		logger:     log.Named("reconcile.host"),
		manualScan: manualScan,
		ips:        iputil.NewSet(),
		seenIPs:    iputil.NewSet(),
	}
}

func (m *HostTicketManager) SetIPs(ips *iputil.Set) {
	m.ips = ips
}

// IPUp marks a host as observed up this run.
func (m *HostTicketManager) IPUp(ip netip.Addr) {
	m.seenIPs.Add(ip)
}

// Ready reports whether the IP scope is configured.
func (m *HostTicketManager) Ready() bool {
	return m.ips.Len() > 0
}

// CloseTickets closes every open ticket on a scanned host that was never
// observed up. Unexpired false positives receive an UNVERIFIED event.
func (m *HostTicketManager) CloseTickets(ctx context.Context) error {
	if !m.Ready() {
		return apperrors.NewValidationError("host scan scope is incomplete",
			"the ip set must be non-empty before closing tickets")
	}

	notUp := m.ips.Difference(m.seenIPs)
	if notUp.Len() == 0 {
		return nil
	}

	closing := timeutil.NowUTC()
	candidates, err := m.tickets.FindOpenInScope(ctx, ticket.OpenTicketFilter{
		IPInts: notUp.Uint32s(),
	})
	if err != nil {
		return fmt.Errorf("failed to find tickets on down hosts: %w", err)
	}

	const reason = "host down"
	for _, t := range candidates {
		t.ExpireFalsePositiveIfDue(closing, m.manualScan)
		if t.FalsePositive() {
			if err := t.MarkUnverified(closing, reason, m.manualScan); err != nil {
				return err
			}
			m.metrics.IncUnverified(scanKindHost)
		} else {
			if err := t.Close(closing, closing, reason, m.manualScan); err != nil {
				return err
			}
			m.metrics.IncClosed(scanKindHost)
		}
		if err := m.tickets.Save(ctx, t); err != nil {
			return fmt.Errorf("failed to save closed ticket %d: %w", t.ID(), err)
		}
	}

	m.logger.Infow("closed tickets for down hosts",
		"hosts_down", notUp.Len(), "candidates", len(candidates))
	return nil
}

// ClearLatestFlags clears the latest flag of every stored vulnerability
// record on a host that was not observed up this run, with no per-port
// matching.
func (m *HostTicketManager) ClearLatestFlags(ctx context.Context) error {
	if !m.Ready() {
		return apperrors.NewValidationError("host scan scope is incomplete",
			"the ip set must be non-empty before clearing latest flags")
	}

	notUp := m.ips.Difference(m.seenIPs)
	if notUp.Len() == 0 {
		return nil
	}

	records, err := m.records.Find(ctx, scan.VulnRecordFilter{
		IPInts: notUp.Uint32s(),
		Latest: true,
	})
	if err != nil {
		return fmt.Errorf("failed to find stale scan records: %w", err)
	}

	for _, rec := range records {
		rec.Latest = false
		if err := m.records.Save(ctx, rec); err != nil {
			return fmt.Errorf("failed to clear latest flag on record %s: %w", rec.ID, err)
		}
	}
	return nil
}
