package reconcile

import (
	"context"
	"net/netip"
	"time"

	"github.com/argus-sec/argus/internal/domain/host"
	"github.com/argus-sec/argus/internal/domain/intel"
	"github.com/argus-sec/argus/internal/domain/notification"
	"github.com/argus-sec/argus/internal/domain/scan"
	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/shared/iputil"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memTicketRepo struct {
	tickets []*ticket.Ticket
	nextID  uint
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{nextID: 1}
}

func (r *memTicketRepo) FindOpenByKey(ctx context.Context, key ticket.Key) (*ticket.Ticket, error) {
	for _, t := range r.tickets {
		if t.Open() && t.Key() == key {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memTicketRepo) FindClosedSince(ctx context.Context, key ticket.Key, closedAfter time.Time) (*ticket.Ticket, error) {
	var best *ticket.Ticket
	for _, t := range r.tickets {
		if t.Open() || t.Key() != key || t.TimeClosed() == nil {
			continue
		}
		if !t.TimeClosed().After(closedAfter) {
			continue
		}
		if best == nil || t.TimeClosed().After(*best.TimeClosed()) {
			best = t
		}
	}
	return best, nil
}

func (r *memTicketRepo) FindOpenInScope(ctx context.Context, filter ticket.OpenTicketFilter) ([]*ticket.Ticket, error) {
	var out []*ticket.Ticket
	for _, t := range r.tickets {
		if t.Open() && matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	return out, nil
}

func matchesFilter(t *ticket.Ticket, f ticket.OpenTicketFilter) bool {
	key := t.Key()
	if f.IPInts != nil && !containsUint32(f.IPInts, iputil.AddrToUint32(key.IP)) {
		return false
	}
	if f.Ports != nil && !containsInt(f.Ports, key.Port) {
		return false
	}
	if f.ExcludePortZero && key.Port == 0 {
		return false
	}
	if f.Protocols != nil && !containsString(f.Protocols, key.Protocol) {
		return false
	}
	if f.Source != "" && key.Source != f.Source {
		return false
	}
	if f.SourceIDs != nil && !containsInt(f.SourceIDs, key.SourceID) {
		return false
	}
	for _, id := range f.ExcludeIDs {
		if t.ID() == id {
			return false
		}
	}
	return true
}

func (r *memTicketRepo) Save(ctx context.Context, t *ticket.Ticket) error {
	if t.ID() == 0 {
		if err := t.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
		r.tickets = append(r.tickets, t)
		return nil
	}
	for i, existing := range r.tickets {
		if existing.ID() == t.ID() {
			r.tickets[i] = t
			return nil
		}
	}
	r.tickets = append(r.tickets, t)
	return nil
}

func (r *memTicketRepo) byID(id uint) *ticket.Ticket {
	for _, t := range r.tickets {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

type memVulnRecordRepo struct {
	records []*scan.VulnRecord
}

func (r *memVulnRecordRepo) Find(ctx context.Context, f scan.VulnRecordFilter) ([]*scan.VulnRecord, error) {
	var out []*scan.VulnRecord
	for _, rec := range r.records {
		if f.IPInts != nil && !containsUint32(f.IPInts, iputil.AddrToUint32(rec.IP)) {
			continue
		}
		if f.Ports != nil && !containsInt(f.Ports, rec.Port) {
			continue
		}
		if f.Source != "" && rec.Source != f.Source {
			continue
		}
		if f.SourceIDs != nil && !containsInt(f.SourceIDs, rec.SourceID) {
			continue
		}
		if f.Latest && !rec.Latest {
			continue
		}
		if containsString(f.ExcludeIDs, rec.ID) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memVulnRecordRepo) Save(ctx context.Context, rec *scan.VulnRecord) error {
	for i, existing := range r.records {
		if existing.ID == rec.ID {
			r.records[i] = rec
			return nil
		}
	}
	r.records = append(r.records, rec)
	return nil
}

type memHostRepo struct {
	hosts map[netip.Addr]*host.Host
}

func (r *memHostRepo) GetByIP(ctx context.Context, ip netip.Addr) (*host.Host, error) {
	return r.hosts[ip], nil
}

type memIntelRepo struct {
	cves map[string]*intel.CVERecord
	kev  map[string]struct{}
}

func newMemIntelRepo() *memIntelRepo {
	return &memIntelRepo{cves: map[string]*intel.CVERecord{}, kev: map[string]struct{}{}}
}

func (r *memIntelRepo) LookupCVE(ctx context.Context, id string) (*intel.CVERecord, error) {
	return r.cves[id], nil
}

func (r *memIntelRepo) IsKnownExploited(ctx context.Context, id string) (bool, error) {
	_, ok := r.kev[id]
	return ok, nil
}

type memNotificationRepo struct {
	created []*notification.Notification
	nextID  uint
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{nextID: 1}
}

func (r *memNotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	if err := n.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.created = append(r.created, n)
	return nil
}

// ---------------------------------------------------------------------------
// Slice helpers
// ---------------------------------------------------------------------------

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsUint32(s []uint32, v uint32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
