package reconcile

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-sec/argus/internal/domain/ticket"
	"github.com/argus-sec/argus/internal/shared/iputil"
	"github.com/argus-sec/argus/internal/shared/logger"
	"github.com/argus-sec/argus/internal/shared/timeutil"
)

func newHostManager(t *testing.T, tickets *memTicketRepo, records *memVulnRecordRepo, scopeIPs ...string) *HostTicketManager {
	t.Helper()
	mgr := NewHostTicketManager(tickets, records, nil, logger.NewLogger(), false)
	ips := iputil.NewSet()
	for _, s := range scopeIPs {
		ips.Add(netip.MustParseAddr(s))
	}
	mgr.SetIPs(ips)
	return mgr
}

func openHostTicket(t *testing.T, repo *memTicketRepo, ip string) *ticket.Ticket {
	t.Helper()
	tk, err := ticket.NewTicket(ticket.Key{
		IP: netip.MustParseAddr(ip), Port: 443, Protocol: "tcp",
		Source: "nessus", SourceID: 12345,
	}, "ACME", nil, ticket.Details{Kind: ticket.KindVulnerability, Name: "finding", Severity: 2},
		timeutil.NowUTC().AddDate(0, 0, -7), "vulnerability detected", "old-rec", false)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), tk))
	return tk
}

func TestHostManager_ClosesTicketsOnDownHosts(t *testing.T) {
	tickets := newMemTicketRepo()
	records := &memVulnRecordRepo{}
	up := openHostTicket(t, tickets, "10.0.0.1")
	down := openHostTicket(t, tickets, "10.0.0.2")

	mgr := newHostManager(t, tickets, records, "10.0.0.1", "10.0.0.2")
	mgr.IPUp(netip.MustParseAddr("10.0.0.1"))
	require.NoError(t, mgr.CloseTickets(context.Background()))

	assert.True(t, up.Open())
	assert.False(t, down.Open())
	events := down.Events()
	last := events[len(events)-1]
	assert.Equal(t, ticket.ActionClosed, last.Action)
	assert.Equal(t, "host down", last.Reason)
	assert.Nil(t, last.Reference)
}

func TestHostManager_AllHostsUpIsANoOp(t *testing.T) {
	tickets := newMemTicketRepo()
	records := &memVulnRecordRepo{}
	tk := openHostTicket(t, tickets, "10.0.0.1")

	mgr := newHostManager(t, tickets, records, "10.0.0.1")
	mgr.IPUp(netip.MustParseAddr("10.0.0.1"))
	require.NoError(t, mgr.CloseTickets(context.Background()))
	require.NoError(t, mgr.ClearLatestFlags(context.Background()))

	assert.True(t, tk.Open())
	assert.Len(t, tk.Events(), 1, "no events appended when every host is up")
}

func TestHostManager_DownHostFalsePositiveMarkedUnverified(t *testing.T) {
	tickets := newMemTicketRepo()
	records := &memVulnRecordRepo{}
	fp := openHostTicket(t, tickets, "10.0.0.2")
	require.NoError(t, fp.SetFalsePositive(timeutil.NowUTC().AddDate(0, 0, -7), 30))

	mgr := newHostManager(t, tickets, records, "10.0.0.2")
	require.NoError(t, mgr.CloseTickets(context.Background()))

	assert.True(t, fp.Open())
	events := fp.Events()
	last := events[len(events)-1]
	assert.Equal(t, ticket.ActionUnverified, last.Action)
	assert.Equal(t, "host down", last.Reason)
}

func TestHostManager_ClearLatestFlagsOnDownHosts(t *testing.T) {
	tickets := newMemTicketRepo()
	records := &memVulnRecordRepo{}

	onUpHost := vulnRecord("rec-up", "10.0.0.1", 2, f64(5.0))
	onDownHost := vulnRecord("rec-down", "10.0.0.2", 2, f64(5.0))
	require.NoError(t, records.Save(context.Background(), onUpHost))
	require.NoError(t, records.Save(context.Background(), onDownHost))

	mgr := newHostManager(t, tickets, records, "10.0.0.1", "10.0.0.2")
	mgr.IPUp(netip.MustParseAddr("10.0.0.1"))
	require.NoError(t, mgr.ClearLatestFlags(context.Background()))

	assert.True(t, onUpHost.Latest)
	assert.False(t, onDownHost.Latest)
}

func TestHostManager_GuardsRequireScope(t *testing.T) {
	mgr := NewHostTicketManager(newMemTicketRepo(), &memVulnRecordRepo{}, nil, logger.NewLogger(), false)

	assert.False(t, mgr.Ready())
	assert.Error(t, mgr.CloseTickets(context.Background()))
	assert.Error(t, mgr.ClearLatestFlags(context.Background()))
}
