package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bigcal/internal/model"
)

func ev(title string, start, end time.Time) model.BasicEvent {
	return model.BasicEvent{Title: title, Start: start, End: end}
}

func TestBuildBucket(t *testing.T) {
	g := Build(date(2024, time.February, 15), time.Sunday, true)

	t.Run("multi-day event lands in every spanned day", func(t *testing.T) {
		e := ev("span", date(2024, time.February, 5), date(2024, time.February, 8))
		b := BuildBucket([]model.BasicEvent{e}, g)

		for d := 5; d <= 7; d++ {
			assert.Len(t, b.EventsFor(date(2024, time.February, d)), 1, "feb %d", d)
		}
		assert.Empty(t, b.EventsFor(date(2024, time.February, 4)))
		assert.Empty(t, b.EventsFor(date(2024, time.February, 8)))
	})

	t.Run("end boundary is exclusive", func(t *testing.T) {
		// Ends exactly at midnight Feb 7: Feb 7 itself is untouched.
		e := ev("boundary", date(2024, time.February, 6), date(2024, time.February, 7))
		b := BuildBucket([]model.BasicEvent{e}, g)

		assert.Len(t, b.EventsFor(date(2024, time.February, 6)), 1)
		assert.Empty(t, b.EventsFor(date(2024, time.February, 7)))
	})

	t.Run("partial-day event occupies its day", func(t *testing.T) {
		e := ev("meeting",
			time.Date(2024, time.February, 6, 9, 0, 0, 0, time.UTC),
			time.Date(2024, time.February, 6, 10, 0, 0, 0, time.UTC))
		b := BuildBucket([]model.BasicEvent{e}, g)
		assert.Len(t, b.EventsFor(date(2024, time.February, 6)), 1)
	})

	t.Run("zero-width event occupies its start day only", func(t *testing.T) {
		at := time.Date(2024, time.February, 6, 9, 0, 0, 0, time.UTC)
		b := BuildBucket([]model.BasicEvent{ev("zero", at, at)}, g)

		assert.Len(t, b.EventsFor(date(2024, time.February, 6)), 1)
		assert.Empty(t, b.EventsFor(date(2024, time.February, 7)))
	})

	t.Run("end before start degrades to the start day", func(t *testing.T) {
		b := BuildBucket([]model.BasicEvent{
			ev("backwards", date(2024, time.February, 10), date(2024, time.February, 3)),
		}, g)

		assert.Len(t, b.EventsFor(date(2024, time.February, 10)), 1)
		assert.Empty(t, b.EventsFor(date(2024, time.February, 3)))
	})

	t.Run("events outside the range are dropped", func(t *testing.T) {
		b := BuildBucket([]model.BasicEvent{
			ev("before", date(2024, time.January, 1), date(2024, time.January, 5)),
			ev("after", date(2024, time.April, 1), date(2024, time.April, 2)),
		}, g)

		for _, d := range g.Days() {
			assert.Empty(t, b.EventsFor(d), "%s", DayKey(d))
		}
	})

	t.Run("event straddling the range is clipped", func(t *testing.T) {
		e := ev("straddle", date(2024, time.January, 20), date(2024, time.March, 10))
		b := BuildBucket([]model.BasicEvent{e}, g)

		// Every visible day of the grid holds the event; days outside don't
		// exist in the bucket at all.
		for _, d := range g.Days() {
			assert.Len(t, b.EventsFor(d), 1, "%s", DayKey(d))
		}
		assert.False(t, b.HasDay(date(2024, time.January, 20)))
	})

	t.Run("per-day order follows snapshot order", func(t *testing.T) {
		events := []model.BasicEvent{
			ev("first", date(2024, time.February, 6), date(2024, time.February, 7)),
			ev("second", date(2024, time.February, 6), date(2024, time.February, 7)),
			ev("third", date(2024, time.February, 6), date(2024, time.February, 7)),
		}
		b := BuildBucket(events, g)

		got := b.EventsFor(date(2024, time.February, 6))
		assert.Equal(t, []model.BasicEvent{events[0], events[1], events[2]}, got)
	})

	t.Run("grid days without events have empty entries", func(t *testing.T) {
		b := BuildBucket[model.BasicEvent](nil, g)
		assert.True(t, b.HasDay(date(2024, time.January, 28)))
		assert.Empty(t, b.EventsFor(date(2024, time.January, 28)))
		assert.False(t, b.HasDay(date(2024, time.March, 3)))
	})
}

func TestBuildBucketRange(t *testing.T) {
	g := Build(date(2024, time.February, 15), time.Sunday, true)

	t.Run("narrower range excludes days beyond it", func(t *testing.T) {
		e := ev("span", date(2024, time.February, 5), date(2024, time.February, 20))
		b := BuildBucketRange([]model.BasicEvent{e}, g,
			date(2024, time.February, 5), date(2024, time.February, 8))

		assert.Len(t, b.IndicesFor(date(2024, time.February, 7)), 1)
		assert.Empty(t, b.IndicesFor(date(2024, time.February, 8)))
	})

	t.Run("indices identify one event across days", func(t *testing.T) {
		events := []model.BasicEvent{
			ev("a", date(2024, time.February, 5), date(2024, time.February, 6)),
			ev("b", date(2024, time.February, 5), date(2024, time.February, 8)),
		}
		b := BuildBucket(events, g)

		assert.Equal(t, []int{0, 1}, b.IndicesFor(date(2024, time.February, 5)))
		assert.Equal(t, []int{1}, b.IndicesFor(date(2024, time.February, 6)))
		assert.Equal(t, []int{1}, b.IndicesFor(date(2024, time.February, 7)))
		assert.Equal(t, "b", b.At(1).EventTitle())
	})
}
