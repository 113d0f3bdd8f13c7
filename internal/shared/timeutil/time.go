// Package timeutil enforces the repo's time discipline: every timestamp that
// is stored or compared against an expiration window is in UTC. Mixing a
// local-zone timestamp into a window comparison silently shifts the window,
// so domain code never calls time.Now directly.
package timeutil

import "time"

// NowUTC returns the current time in UTC, truncated to millisecond precision
// to match the persistence layer's unix-milli columns.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ToUTC normalizes t to UTC. The zero value passes through unchanged.
func ToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// PtrToUTC normalizes an optional timestamp to UTC.
func PtrToUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// FromUnixMilli converts a stored unix-milli value back to a UTC timestamp.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
