// Package layout turns bucketed events into the ordered list of events to
// draw in a single day cell. The sorted policy keeps a multi-day event's
// bar in the same vertical slot on every day it touches and backfills slots
// freed by shorter events, so the column stays packed with no gap above an
// active bar.
package layout

import (
	"sort"
	"time"

	"bigcal/internal/grid"
	"bigcal/internal/model"
)

// Policy selects how a day's events are ordered before truncation.
type Policy int

const (
	// PolicyUnsorted keeps stable bucket order (effectively event-list order).
	PolicyUnsorted Policy = iota
	// PolicySorted applies cross-day continuity packing.
	PolicySorted
)

// Resolved is the per-day output consumed by the rendering layer.
type Resolved[T model.Event] struct {
	// Visible holds at most the configured maximum number of events, in
	// final stacking order (index = vertical slot).
	Visible []T
	// Overflow is the number of the day's own events beyond the visible
	// maximum, summarized by the "+N more" label. Never negative.
	Overflow int
}

// Resolve computes the visible events and overflow count for day.
//
// Anomalies are absorbed rather than raised: a day with no bucket entry
// yields an empty result, malformed events (end before start) are treated
// as zero-duration, and a negative maxVisible counts as zero. This is a
// pure read-side function; a caller mixing up grids and buckets gets a
// blank cell rather than a panic.
func Resolve[T model.Event](day time.Time, bucket grid.DayBucket[T], policy Policy, weekStart time.Weekday, maxVisible int) Resolved[T] {
	if maxVisible < 0 {
		maxVisible = 0
	}

	var ordered []T
	switch policy {
	case PolicySorted:
		ordered = SortedOrder(day, bucket, weekStart)
	default:
		ordered = bucket.EventsFor(day)
	}

	res := Resolved[T]{Visible: ordered}
	if len(ordered) > maxVisible {
		res.Visible = ordered[:maxVisible:maxVisible]
	}
	// Overflow counts the day's actual events, not the ordered list: under
	// the sorted policy that list can carry expired slot spacers, and a
	// spacer hides nothing.
	if total := len(bucket.IndicesFor(day)); total > maxVisible {
		res.Overflow = total - maxVisible
	}
	return res
}

// SortedOrder produces the full (untruncated) stacking order for day under
// the continuity-packing policy.
//
// Consider events A = day1-day2, B = day2-day3, C = day3-day4. Resolving
// day3 naively would stack B then C, leaving C below B even though A's
// slot above B has been free since A expired. Instead, A stays a candidate
// for the whole week it touched, and the day walk splices C into A's slot
// the moment A has ended and C starts. Every day of the week re-derives
// the same walk, so all days agree on slot assignment.
//
// The ordering is fully deterministic: later start days stack first during
// seeding, ties go to the shorter whole-day duration, and events with an
// identical start day and duration keep their snapshot order.
func SortedOrder[T model.Event](day time.Time, bucket grid.DayBucket[T], weekStart time.Weekday) []T {
	dayStart := grid.StartOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekStartDay := grid.StartOfWeek(dayStart, weekStart)
	loc := dayStart.Location()

	// Candidates are drawn from every bucket entry between the start of the
	// week and this day, so events that already expired earlier in the week
	// still participate and can free their slot. The position-based dedup
	// keeps one identity per event across the days it spans.
	cands := make([]int, 0, len(bucket.IndicesFor(dayStart)))
	seen := make(map[int]bool)
	for tmp := weekStartDay; !tmp.After(dayStart); tmp = tmp.AddDate(0, 0, 1) {
		for _, i := range bucket.IndicesFor(tmp) {
			if seen[i] {
				continue
			}
			seen[i] = true
			ev := bucket.At(i)
			if eventEnd(ev).After(weekStartDay) && ev.EventStart().Before(dayEnd) {
				cands = append(cands, i)
			}
		}
	}

	// Later starts first; same start day ties broken by shorter whole-day
	// duration first. Full ties order by descending snapshot position here so
	// the reversal below restores snapshot order in the seed.
	sort.SliceStable(cands, func(a, b int) bool {
		ea, eb := bucket.At(cands[a]), bucket.At(cands[b])
		sa, sb := ea.EventStart(), eb.EventStart()
		if grid.StartOfDay(sa.In(loc)).Equal(grid.StartOfDay(sb.In(loc))) {
			if da, db := durationDays(ea), durationDays(eb); da != db {
				return da < db
			}
			return cands[a] > cands[b]
		}
		return sa.After(sb)
	})

	// Widen min backward to the earliest day of the week whose event chain
	// is still open as of this day. Descending start order makes the single
	// pass equivalent to iterative widening.
	min := dayStart
	for _, i := range cands {
		ev := bucket.At(i)
		if eventEnd(ev).After(min) && ev.EventStart().Before(min) {
			min = grid.StartOfDay(ev.EventStart().In(loc))
		}
	}

	// Keep only events whose end day reaches min, then restore ascending
	// order as the top-to-bottom seed.
	seed := make([]int, 0, len(cands))
	for _, i := range cands {
		ev := bucket.At(i)
		endDay := grid.StartOfDay(eventEnd(ev).In(loc))
		if !endDay.Before(min) && ev.EventStart().Before(dayEnd) {
			seed = append(seed, i)
		}
	}
	for l, r := 0, len(seed)-1; l < r; l, r = l+1, r-1 {
		seed[l], seed[r] = seed[r], seed[l]
	}

	// Walk every day from the start of the week through this day. An event
	// that ended strictly before the walked day frees its slot; a candidate
	// starting exactly on the walked day is spliced into that slot,
	// otherwise unplaced candidates are appended below.
	final := make([]int, 0, len(seed))
	for tmp := weekStartDay; !tmp.After(dayStart); tmp = tmp.AddDate(0, 0, 1) {
		for _, i := range seed {
			if eventEnd(bucket.At(i)).Before(tmp) {
				fresh, ok := findStartingOn(bucket, seed, tmp, loc)
				if !ok {
					continue
				}
				if pos := indexOf(final, fresh); pos >= 0 {
					final = append(final[:pos], final[pos+1:]...)
				}
				if pos := indexOf(final, i); pos >= 0 {
					final[pos] = fresh
				} else {
					final = append(final, fresh)
				}
			} else if indexOf(final, i) < 0 {
				final = append(final, i)
			}
		}
	}

	// Events that expired earlier in the week stay in the list when nothing
	// replaced them: they hold their slot so a continuing bar below never
	// jumps up mid-week. The renderer draws nothing for them on this day.
	out := make([]T, len(final))
	for n, i := range final {
		out[n] = bucket.At(i)
	}
	return out
}

// eventEnd normalizes malformed events: end never precedes start.
func eventEnd(ev model.Event) time.Time {
	if ev.EventEnd().Before(ev.EventStart()) {
		return ev.EventStart()
	}
	return ev.EventEnd()
}

// durationDays is the event's span in whole days, zero for malformed input.
func durationDays(ev model.Event) int {
	d := eventEnd(ev).Sub(ev.EventStart())
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func findStartingOn[T model.Event](bucket grid.DayBucket[T], seed []int, day time.Time, loc *time.Location) (int, bool) {
	for _, i := range seed {
		if grid.StartOfDay(bucket.At(i).EventStart().In(loc)).Equal(day) {
			return i, true
		}
	}
	return 0, false
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
