package ticket

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testKey() Key {
	return Key{
		IP:       netip.MustParseAddr("10.0.0.1"),
		Port:     443,
		Protocol: "tcp",
		Source:   "nessus",
		SourceID: 12345,
	}
}

func testDetails(severity int) Details {
	return Details{
		Kind:     KindVulnerability,
		Name:     "OpenSSL Heartbeat Information Disclosure",
		Severity: severity,
	}
}

// newOpenTicket creates an open ticket with sensible defaults for testing.
func newOpenTicket(t *testing.T) *Ticket {
	t.Helper()
	tk, err := NewTicket(testKey(), "ACME", nil, testDetails(3),
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), "vulnerability detected", "rec-1", false)
	require.NoError(t, err)
	return tk
}

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewTicket_RecordsOpenedEvent(t *testing.T) {
	tk := newOpenTicket(t)

	assert.True(t, tk.Open())
	assert.False(t, tk.FalsePositive())
	assert.Nil(t, tk.TimeClosed())

	events := tk.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ActionOpened, events[0].Action)
	assert.Equal(t, "vulnerability detected", events[0].Reason)
	require.NotNil(t, events[0].Reference)
	assert.Equal(t, "rec-1", *events[0].Reference)
	assert.False(t, events[0].Manual)
}

func TestNewTicket_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(k *Key, owner *string)
	}{
		{"missing IP", func(k *Key, owner *string) { k.IP = netip.Addr{} }},
		{"missing source", func(k *Key, owner *string) { k.Source = "" }},
		{"missing owner", func(k *Key, owner *string) { *owner = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := testKey()
			owner := "ACME"
			tt.mutate(&key, &owner)

			_, err := NewTicket(key, owner, nil, testDetails(3), time.Now(), "r", "ref", false)
			assert.Error(t, err)
		})
	}
}

func TestReconstructTicket_FalsePositiveRequiresExpiration(t *testing.T) {
	_, err := ReconstructTicket(1, testKey(), true, true, nil, nil, "ACME", nil,
		testDetails(3), time.Now(), nil, nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Lifecycle Tests
// ---------------------------------------------------------------------------

func TestTicket_VerifyAppendsEvent(t *testing.T) {
	tk := newOpenTicket(t)

	err := tk.Verify(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC), "vulnerability detected", "rec-2", false)
	require.NoError(t, err)

	events := tk.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionVerified, events[1].Action)
	assert.True(t, tk.Open())
}

func TestTicket_CloseAndReopen(t *testing.T) {
	tk := newOpenTicket(t)
	closedAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, tk.Close(closedAt, closedAt, "vulnerability not detected", false))
	assert.False(t, tk.Open())
	require.NotNil(t, tk.TimeClosed())
	assert.Equal(t, closedAt, *tk.TimeClosed())

	assert.Error(t, tk.Close(closedAt, closedAt, "again", false), "double close must fail")
	assert.Error(t, tk.Verify(closedAt, "r", "ref", false), "cannot verify closed ticket")

	reopenedAt := closedAt.AddDate(0, 0, 30)
	require.NoError(t, tk.Reopen(reopenedAt, "vulnerability detected", "rec-3", false))
	assert.True(t, tk.Open())
	assert.Nil(t, tk.TimeClosed())

	events := tk.Events()
	require.Len(t, events, 3)
	assert.Equal(t, ActionReopened, events[2].Action)

	assert.Error(t, tk.Reopen(reopenedAt, "r", "ref", false), "cannot reopen an open ticket")
}

func TestTicket_CloseEventTimeDiffersFromTimeClosed(t *testing.T) {
	tk := newOpenTicket(t)
	findingTime := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	closingTime := time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC)

	require.NoError(t, tk.Close(findingTime, closingTime, "No associated owner", false))

	events := tk.Events()
	require.Len(t, events, 2)
	assert.Equal(t, findingTime, events[1].Time)
	assert.Nil(t, events[1].Reference, "CLOSED events never reference a scan record")
	assert.Equal(t, closingTime, *tk.TimeClosed())
}

func TestTicket_MarkUnverifiedKeepsOpen(t *testing.T) {
	tk := newOpenTicket(t)
	require.NoError(t, tk.SetFalsePositive(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 30))

	require.NoError(t, tk.MarkUnverified(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), "vulnerability not detected", false))

	assert.True(t, tk.Open())
	events := tk.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionUnverified, events[1].Action)
}

// ---------------------------------------------------------------------------
// False Positive Tests
// ---------------------------------------------------------------------------

func TestTicket_SetFalsePositive(t *testing.T) {
	tk := newOpenTicket(t)
	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, tk.SetFalsePositive(effective, 30))

	assert.True(t, tk.FalsePositive())
	eff, exp := tk.FalsePositiveDates()
	require.NotNil(t, eff)
	require.NotNil(t, exp)
	assert.Equal(t, effective, *eff)
	assert.Equal(t, effective.AddDate(0, 0, 30), *exp)

	assert.Error(t, tk.SetFalsePositive(effective, 0))
}

func TestTicket_ExpireFalsePositiveIfDue(t *testing.T) {
	tk := newOpenTicket(t)
	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tk.SetFalsePositive(effective, 30))

	// Not yet expired.
	flipped := tk.ExpireFalsePositiveIfDue(effective.AddDate(0, 0, 29), false)
	assert.False(t, flipped)
	assert.True(t, tk.FalsePositive())

	// One day past the expiration date.
	flipped = tk.ExpireFalsePositiveIfDue(effective.AddDate(0, 0, 31), false)
	assert.True(t, flipped)
	assert.False(t, tk.FalsePositive())

	events := tk.Events()
	require.Len(t, events, 2)
	last := events[1]
	assert.Equal(t, ActionChanged, last.Action)
	assert.Equal(t, "False positive expired", last.Reason)
	require.Len(t, last.Delta, 1)
	assert.Equal(t, "false_positive", last.Delta[0].Key)
	assert.Equal(t, true, last.Delta[0].From)
	assert.Equal(t, false, last.Delta[0].To)

	// Second run is a no-op.
	assert.False(t, tk.ExpireFalsePositiveIfDue(effective.AddDate(0, 0, 32), false))
	assert.Len(t, tk.Events(), 2)
}

// ---------------------------------------------------------------------------
// Details Tests
// ---------------------------------------------------------------------------

func TestTicket_ApplyDetailsRecordsChange(t *testing.T) {
	tk := newOpenTicket(t)
	at := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

	// Unchanged payload appends nothing.
	delta := tk.ApplyDetails(testDetails(3), at, "rec-2", false)
	assert.Empty(t, delta)
	assert.Len(t, tk.Events(), 1)

	// Severity bump appends a CHANGED event with the delta.
	delta = tk.ApplyDetails(testDetails(4), at, "rec-2", false)
	require.Len(t, delta, 1)
	assert.Equal(t, "severity", delta[0].Key)

	events := tk.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionChanged, events[1].Action)
	assert.Equal(t, "details changed", events[1].Reason)
	assert.Equal(t, delta, events[1].Delta)
	assert.Equal(t, 4, tk.Details().Severity)
}

// ---------------------------------------------------------------------------
// Event Log Invariant Tests
// ---------------------------------------------------------------------------

func TestTicket_EventTimesNeverRegress(t *testing.T) {
	tk := newOpenTicket(t)
	opened := tk.Events()[0].Time

	// A verification stamped before the OPENED event is lifted to the tail.
	require.NoError(t, tk.Verify(opened.Add(-time.Hour), "vulnerability detected", "rec-2", false))

	events := tk.Events()
	require.Len(t, events, 2)
	assert.False(t, events[1].Time.Before(events[0].Time))
	assert.Equal(t, opened, events[1].Time)
}

func TestTicket_EventsReturnsCopy(t *testing.T) {
	tk := newOpenTicket(t)

	events := tk.Events()
	events[0].Reason = "mutated"

	assert.Equal(t, "vulnerability detected", tk.Events()[0].Reason)
}

func TestTicket_SetID(t *testing.T) {
	tk := newOpenTicket(t)

	assert.Error(t, tk.SetID(0))
	require.NoError(t, tk.SetID(7))
	assert.Equal(t, uint(7), tk.ID())
	assert.Error(t, tk.SetID(8), "ID can only be set once")
}
