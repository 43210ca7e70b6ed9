package grid

import (
	"time"

	"bigcal/internal/model"
)

// DayBucket indexes a snapshot of events by the calendar days their
// [start, end) interval intersects. Days are addressed by canonical day
// keys; every valid cell date of the grid the bucket was built for has an
// entry, possibly empty, so read-side lookups never need a fallback branch.
//
// Events are stored once and referenced by position, so an event spanning
// several days keeps a single identity across all of them. The snapshot is
// never mutated; rebuild the bucket whenever events, grid or range change.
type DayBucket[T model.Event] struct {
	events []T
	days   map[string][]int
}

// BuildBucket indexes events against the grid's full visible span. It is
// the common case; BuildBucketRange exists for callers that render a
// narrower or wider window than the grid itself.
func BuildBucket[T model.Event](events []T, g MonthGrid) DayBucket[T] {
	return BuildBucketRange(events, g, g.RangeStart(), g.RangeEnd())
}

// BuildBucketRange filters events down to those intersecting
// [rangeStart, rangeEnd) and walks each survivor day by day, recording it
// against every intersected day. An event spanning N days within the range
// lands in exactly N day entries. Inputs are never mutated.
//
// Events with end before start are treated as zero-duration: they occupy
// their start day only. Zero-width events (start == end) do the same.
func BuildBucketRange[T model.Event](events []T, g MonthGrid, rangeStart, rangeEnd time.Time) DayBucket[T] {
	b := DayBucket[T]{
		events: events,
		days:   make(map[string][]int, len(g.Weeks)*DaysPerWeek),
	}
	for _, w := range g.Weeks {
		for _, c := range w {
			if c.Valid {
				b.days[DayKey(c.Date)] = nil
			}
		}
	}

	loc := rangeStart.Location()
	for i, ev := range events {
		start := ev.EventStart()
		end := ev.EventEnd()

		if !start.Before(end) {
			// Zero-width (or malformed end < start): one day, the start day.
			b.add(DayKey(start.In(loc)), i)
			continue
		}
		if !start.Before(rangeEnd) || !end.After(rangeStart) {
			continue
		}

		cur := StartOfDay(start.In(loc))
		if cur.Before(rangeStart) {
			cur = rangeStart
		}
		for cur.Before(end) && cur.Before(rangeEnd) {
			b.add(DayKey(cur), i)
			cur = cur.AddDate(0, 0, 1)
		}
	}
	return b
}

func (b DayBucket[T]) add(key string, i int) {
	if _, ok := b.days[key]; ok {
		b.days[key] = append(b.days[key], i)
	}
}

// Len reports the number of events in the indexed snapshot.
func (b DayBucket[T]) Len() int { return len(b.events) }

// At returns the event stored at position i.
func (b DayBucket[T]) At(i int) T { return b.events[i] }

// HasDay reports whether day has an entry (i.e., was part of the grid the
// bucket was built for).
func (b DayBucket[T]) HasDay(day time.Time) bool {
	_, ok := b.days[DayKey(StartOfDay(day))]
	return ok
}

// IndicesFor returns the positions of the events attributed to day, in
// stable snapshot order. The returned slice must not be modified.
func (b DayBucket[T]) IndicesFor(day time.Time) []int {
	return b.days[DayKey(StartOfDay(day))]
}

// EventsFor returns the events attributed to day, in stable snapshot order.
func (b DayBucket[T]) EventsFor(day time.Time) []T {
	idx := b.IndicesFor(day)
	if len(idx) == 0 {
		return nil
	}
	out := make([]T, len(idx))
	for n, i := range idx {
		out[n] = b.events[i]
	}
	return out
}
