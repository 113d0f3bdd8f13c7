package reconcile

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/argus-sec/argus/internal/domain/host"
	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/infrastructure/metrics"
	apperrors "github.com/argus-sec/argus/internal/shared/errors"
	"github.com/argus-sec/argus/internal/shared/iputil"
	"github.com/argus-sec/argus/internal/shared/logger"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// PortTicketManager reconciles tickets against port-scan findings. Closing
// decisions are keyed by (ip, open port), not by full ticket identity:
// protocols and sources are not distinguished when deciding that a port has
// gone away.
type PortTicketManager struct {
	tickets       ticket.Repository
	records       scan.VulnRecordRepository
	hosts         host.Repository
	notifications notification.Repository
	metrics       *metrics.Metrics
	logger        logger.Interface

	reopenWindow time.Duration
	manualScan   bool

	closingTime   time.Time
	ips           *iputil.Set
	ports         map[int]struct{}
	protocols     map[string]struct{}
	seenPorts     map[netip.Addr]map[int]struct{}
	seenTicketIDs map[uint]struct{}
}

func NewPortTicketManager(
	tickets ticket.Repository,
	records scan.VulnRecordRepository,
	hosts host.Repository,
	notifications notification.Repository,
	m *metrics.Metrics,
	log logger.Interface,
	protocols []string,
	reopenDays int,
	manualScan bool,
) *PortTicketManager {
	if reopenDays <= 0 {
		reopenDays = DefaultReopenDays
	}
	protoSet := make(map[string]struct{}, len(protocols))
	for _, p := range protocols {
		protoSet[p] = struct{}{}
	}
	return &PortTicketManager{
		tickets:       tickets,
		records:       records,
		hosts:         hosts,
		notifications: notifications,
		metrics:       m,
		logger:        log.Named("reconcile.port"),
		reopenWindow:  time.Duration(reopenDays) * 24 * time.Hour,
		manualScan:    manualScan,
		ips:           iputil.NewSet(),
		ports:         make(map[int]struct{}),
		protocols:     protoSet,
		seenPorts:     make(map[netip.Addr]map[int]struct{}),
		seenTicketIDs: make(map[uint]struct{}),
	}
}

func (m *PortTicketManager) SetIPs(ips *iputil.Set) {
	m.ips = ips
}

func (m *PortTicketManager) SetPorts(ports []int) {
	m.ports = make(map[int]struct{}, len(ports))
	for _, p := range ports {
		m.ports[p] = struct{}{}
	}
}

// Ready reports whether all scope dimensions are configured.
func (m *PortTicketManager) Ready() bool {
	return m.ips.Len() > 0 && len(m.ports) > 0 && len(m.protocols) > 0
}

// PortOpen marks a port as observed open on a host this run.
func (m *PortTicketManager) PortOpen(ip netip.Addr, port int) {
	if m.seenPorts[ip] == nil {
		m.seenPorts[ip] = make(map[int]struct{})
	}
	m.seenPorts[ip][port] = struct{}{}
}

func (m *PortTicketManager) portSeen(ip netip.Addr, port int) bool {
	_, ok := m.seenPorts[ip][port]
	return ok
}

// OpenTicket resolves one open-port observation.
func (m *PortTicketManager) OpenTicket(ctx context.Context, rec *scan.PortRecord, reason string) error {
	at := timeutil.ToUTC(rec.Time)
	if m.closingTime.IsZero() || m.closingTime.Before(at) {
		m.closingTime = at
	}
	m.PortOpen(rec.IP, rec.Port)

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
		prev.ExpireFalsePositiveIfDue(at, m.manualScan)
		if err := prev.Verify(at, reason, rec.ID, m.manualScan); err != nil {
			return err
		}
		if err := m.tickets.Save(ctx, prev); err != nil {
			return fmt.Errorf("failed to save verified ticket %d: %w", prev.ID(), err)
		}
		m.seenTicketIDs[prev.ID()] = struct{}{}
		m.metrics.IncVerified(scanKindPort)
		return nil
	}

	cutoff := timeutil.NowUTC().Add(-m.reopenWindow)
	closed, err := m.tickets.FindClosedSince(ctx, key, cutoff)
	if err != nil {
		return fmt.Errorf("failed to look up closed ticket for %s: %w", key, err)
	}
	if closed != nil {
		if err := closed.Reopen(at, reason, rec.ID, m.manualScan); err != nil {
			return err
		}
		if err := m.tickets.Save(ctx, closed); err != nil {
			return fmt.Errorf("failed to save reopened ticket %d: %w", closed.ID(), err)
		}
		m.seenTicketIDs[closed.ID()] = struct{}{}
		m.metrics.IncReopened(scanKindPort)
		return nil
	}

	details := ticket.NewPortDetails(rec.Name, rec.Service)

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
	m.metrics.IncOpened(scanKindPort)

	// Every newly created port ticket raises a notification.
	n, err := notification.NewNotification(t.ID(), t.Owner())
	if err != nil {
		return err
	}
	if err := m.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification for ticket %d: %w", t.ID(), err)
	}
	m.metrics.IncNotification(scanKindPort)
	return nil
}

// CloseTickets closes open tickets whose (ip, port) was inside scope but not
// observed open. When the scanned port set covers the full port space, hosts
// with zero open ports additionally have their port-0 tickets closed here:
// no open port proves no service-level finding can still be valid.
func (m *PortTicketManager) CloseTickets(ctx context.Context) error {
	if !m.Ready() {
		return apperrors.NewValidationError("port scan scope is incomplete",
			"ips, ports and protocols must all be non-empty before closing tickets")
	}

	closing := m.closingTime
	if closing.IsZero() {
		closing = timeutil.NowUTC()
	}

	var candidates []*ticket.Ticket
	if len(m.ports) == maxPortsCount {
		seenIPs := iputil.NewSet()
		for ip := range m.seenPorts {
			seenIPs.Add(ip)
		}
		noOpenPorts := m.ips.Difference(seenIPs)
		if noOpenPorts.Len() > 0 {
			tickets, err := m.tickets.FindOpenInScope(ctx, ticket.OpenTicketFilter{
				IPInts: noOpenPorts.Uint32s(),
			})
			if err != nil {
				return fmt.Errorf("failed to find tickets on portless hosts: %w", err)
			}
			for _, t := range tickets {
				if err := m.closePortTicket(ctx, t, closing); err != nil {
					return err
				}
			}
		}

		var err error
		candidates, err = m.tickets.FindOpenInScope(ctx, ticket.OpenTicketFilter{
			IPInts:          m.ips.Uint32s(),
			ExcludePortZero: true,
			Protocols:       sortedStrings(m.protocols),
		})
		if err != nil {
			return fmt.Errorf("failed to find tickets to close: %w", err)
		}
	} else {
		var err error
		candidates, err = m.tickets.FindOpenInScope(ctx, ticket.OpenTicketFilter{
			IPInts:    m.ips.Uint32s(),
			Ports:     sortedInts(m.ports),
			Protocols: sortedStrings(m.protocols),
		})
		if err != nil {
			return fmt.Errorf("failed to find tickets to close: %w", err)
		}
	}

	for _, t := range candidates {
		if m.portSeen(t.Key().IP, t.Key().Port) {
			continue
		}
		if err := m.closePortTicket(ctx, t, closing); err != nil {
			return err
		}
	}
	return nil
}

func (m *PortTicketManager) closePortTicket(ctx context.Context, t *ticket.Ticket, closing time.Time) error {
	const reason = "port not open"
	t.ExpireFalsePositiveIfDue(closing, m.manualScan)
	if t.FalsePositive() {
		if err := t.MarkUnverified(closing, reason, m.manualScan); err != nil {
			return err
		}
		m.metrics.IncUnverified(scanKindPort)
	} else {
		if err := t.Close(closing, closing, reason, m.manualScan); err != nil {
			return err
		}
		m.metrics.IncClosed(scanKindPort)
	}
	if err := m.tickets.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to save closed ticket %d: %w", t.ID(), err)
	}
	return nil
}

// ClearLatestFlags clears the latest flag of stored vulnerability records on
// hosts whose (ip, port) was not observed open this run.
func (m *PortTicketManager) ClearLatestFlags(ctx context.Context) error {
	if !m.Ready() {
		return apperrors.NewValidationError("port scan scope is incomplete",
			"ips, ports and protocols must all be non-empty before clearing latest flags")
	}

	records, err := m.records.Find(ctx, scan.VulnRecordFilter{
		IPInts: m.ips.Uint32s(),
		Latest: true,
	})
	if err != nil {
		return fmt.Errorf("failed to find stale scan records: %w", err)
	}

	for _, rec := range records {
		if m.portSeen(rec.IP, rec.Port) {
			continue
		}
		rec.Latest = false
		if err := m.records.Save(ctx, rec); err != nil {
			return fmt.Errorf("failed to clear latest flag on record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// ClosingTime returns the run's closing time observed so far.
func (m *PortTicketManager) ClosingTime() time.Time {
	return m.closingTime
}
