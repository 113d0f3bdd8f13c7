package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/argus-sec/argus/internal/domain/host"
	"github.com/argus-sec/argus/internal/domain/intel"
	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	apperrors "github.com/argus-sec/argus/internal/shared/errors"
	"github.com/argus-sec/argus/internal/shared/iputil"
	"github.com/argus-sec/argus/internal/shared/logger"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// VulnTicketManager reconciles tickets against vulnerability-scan findings
// for a single source. It owns severity/CVSS normalization and the
// change-driven notification policy.
type VulnTicketManager struct {
	tickets       ticket.Repository
	records       scan.VulnRecordRepository
	hosts         host.Repository
	intel         intel.Repository
	notifications notification.Repository
	metrics       *metrics.Metrics
	logger        logger.Interface

	source       string
	reopenWindow time.Duration
	manualScan   bool

	closingTime   time.Time
	ips           *iputil.Set
	ports         map[int]struct{}
	sourceIDs     map[int]struct{}
	seenTicketIDs map[uint]struct{}
	seenRecordIDs map[string]struct{}
}

func NewVulnTicketManager(
	tickets ticket.Repository,
	records scan.VulnRecordRepository,
	hosts host.Repository,
	intelRepo intel.Repository,
	notifications notification.Repository,
	m *metrics.Metrics,
	log logger.Interface,
	source string,
	reopenDays int,
	manualScan bool,
) *VulnTicketManager {
	if reopenDays <= 0 {
		reopenDays = DefaultReopenDays
	}
	return &VulnTicketManager{
		tickets:       tickets,
		records:       records,
		hosts:         hosts,
		intel:         intelRepo,
		notifications: notifications,
		metrics:       m,
		logger:        log.Named("reconcile.vuln"),
		source:        source,
		reopenWindow:  time.Duration(reopenDays) * 24 * time.Hour,
		manualScan:    manualScan,
		ips:           iputil.NewSet(),
		ports:         make(map[int]struct{}),
		sourceIDs:     make(map[int]struct{}),
		seenTicketIDs: make(map[uint]struct{}),
		seenRecordIDs: make(map[string]struct{}),
	}
}

func (m *VulnTicketManager) SetIPs(ips *iputil.Set) {
	m.ips = ips
}

// SetPorts configures the scanned port scope. Port 0 is always included:
// general findings carry no specific port and a scanner never reports 0 as
// open, so scope-based closing must still consider it.
func (m *VulnTicketManager) SetPorts(ports []int) {
	m.ports = make(map[int]struct{}, len(ports)+1)
	for _, p := range ports {
		m.ports[p] = struct{}{}
	}
	m.ports[0] = struct{}{}
}

func (m *VulnTicketManager) SetSourceIDs(ids []int) {
	m.sourceIDs = make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m.sourceIDs[id] = struct{}{}
	}
}

// Ready reports whether all scope dimensions are configured. Scope-based
// closing with a partially empty scope would close everything it touches, so
// CloseTickets and ClearLatestFlags refuse to run until this holds.
func (m *VulnTicketManager) Ready() bool {
	return m.ips.Len() > 0 && len(m.ports) > 0 && len(m.sourceIDs) > 0
}

// OpenTicket resolves one observed finding: re-verify an open ticket, reopen
// a recently closed one, or open a new ticket.
func (m *VulnTicketManager) OpenTicket(ctx context.Context, rec *scan.VulnRecord, reason string) error {
	at := timeutil.ToUTC(rec.Time)
	if m.closingTime.IsZero() || m.closingTime.Before(at) {
		m.closingTime = at
	}
	m.seenRecordIDs[rec.ID] = struct{}{}

	key := ticket.Key{
		IP:       rec.IP,
		Port:     rec.Port,
		Protocol: rec.Protocol,
		Source:   rec.Source,
		SourceID: rec.SourceID,
	}

	prev, err := m.tickets.FindOpenByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to look up open ticket for %s: %w", key, err)
	}
	if prev != nil {
		// Already resolved this run; a second observation must not
		// double-append events.
		if _, seen := m.seenTicketIDs[prev.ID()]; seen {
			return nil
		}
		return m.verifyTicket(ctx, prev, rec, at, reason)
	}

	cutoff := timeutil.NowUTC().Add(-m.reopenWindow)
	closed, err := m.tickets.FindClosedSince(ctx, key, cutoff)
	if err != nil {
		return fmt.Errorf("failed to look up closed ticket for %s: %w", key, err)
	}
	if closed != nil {
		return m.reopenTicket(ctx, closed, rec, at, reason)
	}

	return m.openNewTicket(ctx, key, rec, at, reason)
}

func (m *VulnTicketManager) verifyTicket(ctx context.Context, t *ticket.Ticket, rec *scan.VulnRecord, at time.Time, reason string) error {
	t.ExpireFalsePositiveIfDue(at, m.manualScan)

	details, err := m.buildDetails(ctx, rec)
	if err != nil {
		return err
	}
	delta := t.ApplyDetails(details, at, rec.ID, m.manualScan)

	if err := t.Verify(at, reason, rec.ID, m.manualScan); err != nil {
		return err
	}
	if err := m.tickets.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to save verified ticket %d: %w", t.ID(), err)
	}
	m.seenTicketIDs[t.ID()] = struct{}{}
	m.metrics.IncVerified(scanKindVuln)

	if !t.FalsePositive() && deltaTriggersNotification(delta) {
		return m.createNotification(ctx, t)
	}
	return nil
}

func (m *VulnTicketManager) reopenTicket(ctx context.Context, t *ticket.Ticket, rec *scan.VulnRecord, at time.Time, reason string) error {
	details, err := m.buildDetails(ctx, rec)
	if err != nil {
		return err
	}
	delta := t.ApplyDetails(details, at, rec.ID, m.manualScan)

	if err := t.Reopen(at, reason, rec.ID, m.manualScan); err != nil {
		return err
	}
	if err := m.tickets.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to save reopened ticket %d: %w", t.ID(), err)
	}
	m.seenTicketIDs[t.ID()] = struct{}{}
	m.metrics.IncReopened(scanKindVuln)
	m.logger.Infow("reopened ticket", "ticket_id", t.ID(), "key", t.Key().String())

	if !t.FalsePositive() && deltaTriggersNotification(delta) {
		return m.createNotification(ctx, t)
	}
	return nil
}

func (m *VulnTicketManager) openNewTicket(ctx context.Context, key ticket.Key, rec *scan.VulnRecord, at time.Time, reason string) error {
	details, err := m.buildDetails(ctx, rec)
	if err != nil {
		return err
	}

	var loc *string
	h, err := m.hosts.GetByIP(ctx, rec.IP)
	if err != nil {
		return fmt.Errorf("failed to look up host %s: %w", rec.IP, err)
	}
	if h != nil {
		loc = h.Loc
	}

	t, err := ticket.NewTicket(key, rec.Owner, loc, details, at, reason, rec.ID, m.manualScan)
	if err != nil {
		return err
	}

	if rec.Owner == host.UnknownOwner {
		if err := t.Close(at, m.closingTime, "No associated owner", m.manualScan); err != nil {
			return err
		}
	}

	if err := m.tickets.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to save new ticket for %s: %w", key, err)
	}
	m.seenTicketIDs[t.ID()] = struct{}{}
	m.metrics.IncOpened(scanKindVuln)

	if details.Severity > 2 || details.KEV {
		return m.createNotification(ctx, t)
	}
	return nil
}

// buildDetails normalizes a finding into the ticket's details payload,
// preferring a CVSS v3 score over v2 and overriding scanner-reported values
// with intelligence data when the CVE is known.
func (m *VulnTicketManager) buildDetails(ctx context.Context, rec *scan.VulnRecord) (ticket.Details, error) {
	score := rec.CVSSBaseScore
	version := "2"
	if rec.CVSS3BaseScore != nil {
		score = *rec.CVSS3BaseScore
		version = "3"
	}

	d := ticket.Details{
		Kind:          ticket.KindVulnerability,
		Name:          rec.Name,
		Severity:      rec.Severity,
		CVE:           rec.CVE,
		CVSSBaseScore: &score,
		CVSSVersion:   version,
		ScoreSource:   rec.Source,
		VPRScore:      rec.VPRScore,
	}

	if rec.CVE != nil {
		cve, err := m.intel.LookupCVE(ctx, *rec.CVE)
		if err != nil {
			return d, fmt.Errorf("failed to look up CVE %s: %w", *rec.CVE, err)
		}
		if cve != nil {
			intelScore := cve.CVSSScore
			d.CVSSBaseScore = &intelScore
			d.CVSSVersion = cve.CVSSVersion
			d.ScoreSource = intel.ScoreSourceNVD
			d.Severity = cve.Severity
		}
		kev, err := m.intel.IsKnownExploited(ctx, *rec.CVE)
		if err != nil {
			return d, fmt.Errorf("failed to check KEV catalog for %s: %w", *rec.CVE, err)
		}
		d.KEV = kev
	}

	// Scanners sometimes report a severity inconsistent with their own CVSS
	// score. When the score did not come from the intelligence source,
	// re-derive severity from the numeric score. A v3 score of 0.0 maps to
	// severity 1, a long-standing assumption of the 1..4 scale.
	if d.ScoreSource != intel.ScoreSourceNVD {
		d.Severity = severityFromScore(d.CVSSVersion, *d.CVSSBaseScore, d.Severity)
	}

	return d, nil
}

func severityFromScore(version string, score float64, fallback int) int {
	switch version {
	case "2":
		switch {
		case score == 10:
			return 4
		case score >= 7.0:
			return 3
		case score >= 4.0:
			return 2
		default:
			return 1
		}
	case "3":
		switch {
		case score >= 9.0:
			return 4
		case score >= 7.0:
			return 3
		case score >= 4.0:
			return 2
		default:
			return 1
		}
	}
	return fallback
}

func (m *VulnTicketManager) createNotification(ctx context.Context, t *ticket.Ticket) error {
	n, err := notification.NewNotification(t.ID(), t.Owner())
	if err != nil {
		return err
	}
	if err := m.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification for ticket %d: %w", t.ID(), err)
	}
	m.metrics.IncNotification(scanKindVuln)
	return nil
}

// CloseTickets closes every open ticket inside the run's scope that was not
// confirmed present. Unexpired false positives receive an UNVERIFIED event
// instead.
func (m *VulnTicketManager) CloseTickets(ctx context.Context) error {
	if !m.Ready() {
		return apperrors.NewValidationError("vulnerability scan scope is incomplete",
			"ips, ports and source ids must all be non-empty before closing tickets")
	}

	closing := m.closingTime
	if closing.IsZero() {
		closing = timeutil.NowUTC()
	}

	candidates, err := m.tickets.FindOpenInScope(ctx, ticket.OpenTicketFilter{
		IPInts:     m.ips.Uint32s(),
		Ports:      sortedInts(m.ports),
		Source:     m.source,
		SourceIDs:  sortedInts(m.sourceIDs),
		ExcludeIDs: sortedTicketIDs(m.seenTicketIDs),
	})
	if err != nil {
		return fmt.Errorf("failed to find tickets to close: %w", err)
	}

	const reason = "vulnerability not detected"
	for _, t := range candidates {
		t.ExpireFalsePositiveIfDue(closing, m.manualScan)
		if t.FalsePositive() {
			if err := t.MarkUnverified(closing, reason, m.manualScan); err != nil {
				return err
			}
			m.metrics.IncUnverified(scanKindVuln)
		} else {
			if err := t.Close(closing, closing, reason, m.manualScan); err != nil {
				return err
			}
			m.metrics.IncClosed(scanKindVuln)
		}
		if err := m.tickets.Save(ctx, t); err != nil {
			return fmt.Errorf("failed to save closed ticket %d: %w", t.ID(), err)
		}
	}

	m.logger.Infow("scope-based close completed",
		"source", m.source, "candidates", len(candidates), "closing_time", closing)
	return nil
}

// ClearLatestFlags clears the latest flag of stored vulnerability records
// inside scope that were not confirmed present this run.
func (m *VulnTicketManager) ClearLatestFlags(ctx context.Context) error {
	if !m.Ready() {
		return apperrors.NewValidationError("vulnerability scan scope is incomplete",
			"ips, ports and source ids must all be non-empty before clearing latest flags")
	}

	records, err := m.records.Find(ctx, scan.VulnRecordFilter{
		IPInts:     m.ips.Uint32s(),
		Ports:      sortedInts(m.ports),
		Source:     m.source,
		SourceIDs:  sortedInts(m.sourceIDs),
		Latest:     true,
		ExcludeIDs: sortedRecordIDs(m.seenRecordIDs),
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

// ClosingTime returns the run's closing time: the latest finding time
// observed, or the zero value when no findings were fed yet.
func (m *VulnTicketManager) ClosingTime() time.Time {
	return m.closingTime
}
