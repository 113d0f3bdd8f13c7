package ticket

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/argus-sec/argus/internal/shared/timeutil"
)

// Key is the ticket identity. At most one ticket may be open for a given key
// at any time.
type Key struct {
	IP       netip.Addr
	Port     int
	Protocol string
	Source   string
	SourceID int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d/%s %s/%d", k.IP, k.Port, k.Protocol, k.Source, k.SourceID)
}

// Ticket tracks the lifetime of a single finding from discovery to
// remediation. Every state transition appends exactly one event; the event
// log is append-only and time non-decreasing.
type Ticket struct {
	id            uint
	key           Key
	open          bool
	falsePositive bool
	fpEffective   *time.Time
	fpExpiration  *time.Time
	owner         string
	loc           *string
	details       Details
	timeOpened    time.Time
	timeClosed    *time.Time
	events        []Event
}

// NewTicket creates a ticket for the first observation of a finding and
// records the OPENED event.
func NewTicket(key Key, owner string, loc *string, details Details, openedAt time.Time, reason, reference string, manual bool) (*Ticket, error) {
	if !key.IP.IsValid() {
		return nil, fmt.Errorf("ticket IP is required")
	}
	if key.Source == "" {
		return nil, fmt.Errorf("ticket source is required")
	}
	if owner == "" {
		return nil, fmt.Errorf("ticket owner is required")
	}

	openedAt = timeutil.ToUTC(openedAt)
	t := &Ticket{
		key:        key,
		open:       true,
		owner:      owner,
		loc:        loc,
		details:    details,
		timeOpened: openedAt,
	}
	t.appendEvent(Event{
		Action:    ActionOpened,
		Reason:    reason,
		Reference: &reference,
		Time:      openedAt,
		Manual:    manual,
	})
	return t, nil
}

// ReconstructTicket rebuilds a persisted ticket.
func ReconstructTicket(
	id uint,
	key Key,
	open bool,
	falsePositive bool,
	fpEffective, fpExpiration *time.Time,
	owner string,
	loc *string,
	details Details,
	timeOpened time.Time,
	timeClosed *time.Time,
	events []Event,
) (*Ticket, error) {
	if id == 0 {
		return nil, fmt.Errorf("ticket ID cannot be zero")
	}
	if !key.IP.IsValid() {
		return nil, fmt.Errorf("ticket IP is required")
	}
	if falsePositive && fpExpiration == nil {
		return nil, fmt.Errorf("false positive ticket requires an expiration date")
	}

	return &Ticket{
		id:            id,
		key:           key,
		open:          open,
		falsePositive: falsePositive,
		fpEffective:   timeutil.PtrToUTC(fpEffective),
		fpExpiration:  timeutil.PtrToUTC(fpExpiration),
		owner:         owner,
		loc:           loc,
		details:       details,
		timeOpened:    timeutil.ToUTC(timeOpened),
		timeClosed:    timeutil.PtrToUTC(timeClosed),
		events:        events,
	}, nil
}

func (t *Ticket) ID() uint {
	return t.id
}

func (t *Ticket) Key() Key {
	return t.key
}

func (t *Ticket) Open() bool {
	return t.open
}

func (t *Ticket) FalsePositive() bool {
	return t.falsePositive
}

func (t *Ticket) FalsePositiveDates() (effective, expiration *time.Time) {
	return t.fpEffective, t.fpExpiration
}

func (t *Ticket) Owner() string {
	return t.owner
}

func (t *Ticket) Loc() *string {
	return t.loc
}

func (t *Ticket) Details() Details {
	return t.details
}

func (t *Ticket) TimeOpened() time.Time {
	return t.timeOpened
}

func (t *Ticket) TimeClosed() *time.Time {
	return t.timeClosed
}

// Events returns a copy of the event log.
func (t *Ticket) Events() []Event {
	events := make([]Event, len(t.events))
	copy(events, t.events)
	return events
}

func (t *Ticket) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("ticket ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ticket ID cannot be zero")
	}
	t.id = id
	return nil
}

// SetFalsePositive marks the ticket as a false positive for the given number
// of days starting at effective.
func (t *Ticket) SetFalsePositive(effective time.Time, days int) error {
	if days <= 0 {
		return fmt.Errorf("false positive window must be positive")
	}
	effective = timeutil.ToUTC(effective)
	expiration := effective.AddDate(0, 0, days)
	t.falsePositive = true
	t.fpEffective = &effective
	t.fpExpiration = &expiration
	return nil
}

// Verify records that the finding was observed again while the ticket is
// open.
func (t *Ticket) Verify(at time.Time, reason, reference string, manual bool) error {
	if !t.open {
		return fmt.Errorf("cannot verify a closed ticket")
	}
	t.appendEvent(Event{
		Action:    ActionVerified,
		Reason:    reason,
		Reference: &reference,
		Time:      timeutil.ToUTC(at),
		Manual:    manual,
	})
	return nil
}

// Reopen transitions a closed ticket back to open when the finding resurfaces
// inside the reopen window.
func (t *Ticket) Reopen(at time.Time, reason, reference string, manual bool) error {
	if t.open {
		return fmt.Errorf("cannot reopen an open ticket")
	}
	t.appendEvent(Event{
		Action:    ActionReopened,
		Reason:    reason,
		Reference: &reference,
		Time:      timeutil.ToUTC(at),
		Manual:    manual,
	})
	t.open = true
	t.timeClosed = nil
	return nil
}

// Close closes the ticket. The event carries eventTime while the stored
// time_closed is closedAt; the two differ for unknown-owner auto-closes,
// where the event keeps the finding time but the close is stamped with the
// run's closing time. CLOSED events never reference a scan record.
func (t *Ticket) Close(eventTime, closedAt time.Time, reason string, manual bool) error {
	if !t.open {
		return fmt.Errorf("ticket is already closed")
	}
	closedAt = timeutil.ToUTC(closedAt)
	t.appendEvent(Event{
		Action: ActionClosed,
		Reason: reason,
		Time:   timeutil.ToUTC(eventTime),
		Manual: manual,
	})
	t.open = false
	t.timeClosed = &closedAt
	return nil
}

// MarkUnverified records that the finding was not observed but the ticket
// stays open because it is an unexpired false positive.
func (t *Ticket) MarkUnverified(at time.Time, reason string, manual bool) error {
	if !t.open {
		return fmt.Errorf("cannot mark a closed ticket unverified")
	}
	t.appendEvent(Event{
		Action: ActionUnverified,
		Reason: reason,
		Time:   timeutil.ToUTC(at),
		Manual: manual,
	})
	return nil
}

// ExpireFalsePositiveIfDue flips the false-positive flag when its expiration
// date has passed, recording the flip as a CHANGED event. It must run before
// any close or verify decision that consults the flag. Returns whether the
// flag was flipped.
func (t *Ticket) ExpireFalsePositiveIfDue(at time.Time, manual bool) bool {
	if !t.falsePositive || t.fpExpiration == nil {
		return false
	}
	at = timeutil.ToUTC(at)
	if !t.fpExpiration.Before(at) {
		return false
	}
	t.falsePositive = false
	t.appendEvent(Event{
		Action: ActionChanged,
		Reason: "False positive expired",
		Time:   at,
		Delta:  []DeltaEntry{{Key: "false_positive", From: true, To: false}},
		Manual: manual,
	})
	return true
}

// ApplyDetails replaces the details payload. A non-empty delta against the
// stored payload is recorded as a CHANGED event referencing the triggering
// scan record. The computed delta is returned, empty when nothing changed.
func (t *Ticket) ApplyDetails(next Details, at time.Time, reference string, manual bool) []DeltaEntry {
	delta := t.details.Delta(next)
	if len(delta) > 0 {
		t.appendEvent(Event{
			Action:    ActionChanged,
			Reason:    "details changed",
			Reference: &reference,
			Time:      timeutil.ToUTC(at),
			Delta:     delta,
			Manual:    manual,
		})
	}
	t.details = next
	return delta
}

// appendEvent preserves the event-log invariant: append-only, time
// non-decreasing. An event timestamped before the log tail is lifted to the
// tail's time.
func (t *Ticket) appendEvent(ev Event) {
	if n := len(t.events); n > 0 && ev.Time.Before(t.events[n-1].Time) {
		ev.Time = t.events[n-1].Time
	}
	t.events = append(t.events, ev)
}
