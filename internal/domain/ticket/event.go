package ticket

import "time"

// EventAction identifies a ticket lifecycle transition.
type EventAction string

const (
	ActionOpened     EventAction = "OPENED"
	ActionVerified   EventAction = "VERIFIED"
	ActionReopened   EventAction = "REOPENED"
	ActionChanged    EventAction = "CHANGED"
	ActionUnverified EventAction = "UNVERIFIED"
	ActionClosed     EventAction = "CLOSED"
)

// DeltaEntry records a single field change between two details payloads.
type DeltaEntry struct {
	Key  string      `json:"key"`
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// Event is an immutable log entry appended to a ticket. Reference holds the
// id of the triggering scan record; it is nil for scope-based closes.
type Event struct {
	Action    EventAction  `json:"action"`
	Reason    string       `json:"reason"`
	Reference *string      `json:"reference"`
	Time      time.Time    `json:"time"`
	Delta     []DeltaEntry `json:"delta,omitempty"`
	Manual    bool         `json:"manual,omitempty"`
}
