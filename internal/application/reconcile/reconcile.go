// Package reconcile implements the per-run ticket reconciliation managers.
// A manager is driven externally, once per scan run, through: configure
// scope, feed observed findings, CloseTickets, ClearLatestFlags. Scope and
// the seen sets are owned by one manager instance for exactly one run.
package reconcile

import (
	"sort"

	"github.com/argus-sec/argus/internal/domain/ticket"
)

// DefaultReopenDays is the window during which a closed ticket is reopened
// instead of recreated.
const DefaultReopenDays = 90

// maxPortsCount is the size of the full port space; a port scan covering all
// of it proves the absence of any service on an unseen host.
const maxPortsCount = 65535

const (
	scanKindVuln = "vulnscan"
	scanKindPort = "portscan"
	scanKindHost = "netscan"
)

// deltaTriggersNotification reports whether a details delta crosses one of
// the notification thresholds: severity moving from below High (3) to High
// or above, or the KEV flag flipping on.
func deltaTriggersNotification(delta []ticket.DeltaEntry) bool {
	for _, d := range delta {
		switch d.Key {
		case "severity":
			from, okFrom := toInt(d.From)
			to, okTo := toInt(d.To)
			if okFrom && okTo && from < 3 && to >= 3 {
				return true
			}
		case "kev":
			if d.From == false && d.To == true {
				return true
			}
		}
	}
	return false
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedTicketIDs(set map[uint]struct{}) []uint {
	out := make([]uint, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedRecordIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
