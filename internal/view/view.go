// Package view composes the grid, bucket, layout and pager pieces into
// ready-to-draw page values. It owns the per-page memo cache: pages inside
// the virtualizer's materialized range carry computed content, pages
// outside are cheap placeholders, and a committed page change only
// recomputes pages that newly entered the range.
package view

import (
	"strconv"
	"strings"
	"time"

	"bigcal/internal/grid"
	"bigcal/internal/layout"
	"bigcal/internal/model"
	"bigcal/internal/pager"
)

// MoreCountToken is the literal placeholder substituted with the overflow
// count in the more-label template.
const MoreCountToken = "{moreCount}"

// Options bundles the layout knobs threaded into every page computation.
// State lives with the caller; Options is passed by value and never
// retained beyond fingerprinting for cache invalidation.
type Options struct {
	WeekStart          time.Weekday
	ShowAdjacentMonths bool
	MaxVisibleEvents   int
	SortedMonthView    bool
	// MoreLabel is a template containing MoreCountToken, e.g. "{moreCount} More".
	MoreLabel string
}

func (o Options) policy() layout.Policy {
	if o.SortedMonthView {
		return layout.PolicySorted
	}
	return layout.PolicyUnsorted
}

func (o Options) fingerprint() string {
	return strconv.Itoa(int(o.WeekStart)) + "|" +
		strconv.FormatBool(o.ShowAdjacentMonths) + "|" +
		strconv.Itoa(o.MaxVisibleEvents) + "|" +
		strconv.FormatBool(o.SortedMonthView) + "|" +
		o.MoreLabel
}

// MoreLabelText renders the overflow label for n hidden events.
func MoreLabelText(template string, n int) string {
	return strings.ReplaceAll(template, MoreCountToken, strconv.Itoa(n))
}

// DayEvents is one day cell's drawable content.
type DayEvents[T model.Event] struct {
	Date     time.Time
	Visible  []T
	Overflow int
	// MoreLabel is the substituted overflow label, empty when nothing is
	// hidden.
	MoreLabel string
}

// RenderedPage is one fully computed page. Placeholder pages keep the same
// footprint (index, anchor, title) with no grid or day content, so the
// consumer can lay out the pager uniformly and swap real content in when
// the page enters the materialized range.
type RenderedPage[T model.Event] struct {
	Index       int
	AnchorDate  time.Time
	Title       string
	Placeholder bool

	// Grid is set for month pages only.
	Grid grid.MonthGrid
	// Days maps canonical day keys to resolved cell content, covering every
	// valid day of the page's span.
	Days map[string]DayEvents[T]
}

// Renderer memoizes rendered pages for a single Virtualizer. It is not
// safe for concurrent use; the surrounding controller serializes access
// the same way UI callbacks do.
type Renderer[T model.Event] struct {
	v    *pager.Virtualizer
	opts Options

	cache map[int]*RenderedPage[T]
	// revision identifies the event snapshot the cache was computed from.
	revision uint64
	optsKey  string
}

// NewRenderer wraps a virtualizer with a page cache.
func NewRenderer[T model.Event](v *pager.Virtualizer, opts Options) *Renderer[T] {
	return &Renderer[T]{
		v:       v,
		opts:    opts,
		cache:   make(map[int]*RenderedPage[T]),
		optsKey: opts.fingerprint(),
	}
}

// Options returns the renderer's current layout options.
func (r *Renderer[T]) Options() Options { return r.opts }

// SetOptions replaces the layout options, dropping the cache when any
// key component changed.
func (r *Renderer[T]) SetOptions(opts Options) {
	key := opts.fingerprint()
	if key != r.optsKey {
		r.cache = make(map[int]*RenderedPage[T])
		r.optsKey = key
	}
	r.opts = opts
}

// Pages returns the full window of pages around the committed index:
// materialized pages carry content (computed now if they newly entered the
// range, reused from cache otherwise), pages outside the range are
// placeholders and lose any cached content. revision must change whenever
// the events snapshot changes; a new revision invalidates everything.
func (r *Renderer[T]) Pages(events []T, revision uint64) []*RenderedPage[T] {
	if revision != r.revision {
		r.cache = make(map[int]*RenderedPage[T])
		r.revision = revision
	}

	start, end := r.v.MaterializedRange(r.v.Current(), r.v.CacheRadius())
	for idx := range r.cache {
		if idx < start || idx > end {
			delete(r.cache, idx)
		}
	}

	out := make([]*RenderedPage[T], 0, r.v.TotalPages())
	for idx := 0; idx < r.v.TotalPages(); idx++ {
		if idx < start || idx > end {
			out = append(out, r.placeholder(idx))
			continue
		}
		out = append(out, r.page(idx, events))
	}
	return out
}

// Page returns a single materialized page regardless of the committed
// index, computing it on demand. Only pages inside the materialized range
// enter the cache; a caller walking arbitrary far-away dates gets a fresh
// computation each time instead of growing the cache without bound.
func (r *Renderer[T]) Page(index int, events []T, revision uint64) *RenderedPage[T] {
	if revision != r.revision {
		r.cache = make(map[int]*RenderedPage[T])
		r.revision = revision
	}
	index = r.v.ClampIndex(index)

	start, end := r.v.MaterializedRange(r.v.Current(), r.v.CacheRadius())
	if index < start || index > end {
		if p, ok := r.cache[index]; ok {
			return p
		}
		return r.compute(index, events)
	}
	return r.page(index, events)
}

func (r *Renderer[T]) page(index int, events []T) *RenderedPage[T] {
	if p, ok := r.cache[index]; ok {
		return p
	}
	p := r.compute(index, events)
	r.cache[index] = p
	return p
}

func (r *Renderer[T]) compute(index int, events []T) *RenderedPage[T] {
	anchor := r.v.DateForPage(index)
	p := &RenderedPage[T]{
		Index:      index,
		AnchorDate: anchor,
		Days:       make(map[string]DayEvents[T]),
	}

	if r.v.Unit() == pager.UnitMonth {
		p.Grid = grid.Build(anchor, r.opts.WeekStart, r.opts.ShowAdjacentMonths)
		p.Title = anchor.Format("January 2006")
		bucket := grid.BuildBucket(events, p.Grid)
		for _, day := range p.Grid.Days() {
			p.Days[grid.DayKey(day)] = r.resolveCell(day, bucket)
		}
	} else {
		spanEnd := r.v.SpanEnd(index)
		p.Title = RangeTitle(anchor, spanEnd.AddDate(0, 0, -1))
		// Day and 3-day spans reuse the month machinery on a degenerate
		// grid: one row per span day keeps the bucket contract intact.
		g := spanGrid(anchor, spanEnd, r.opts.WeekStart)
		bucket := grid.BuildBucketRange(events, g, anchor, spanEnd)
		for _, day := range g.Days() {
			p.Days[grid.DayKey(day)] = r.resolveCell(day, bucket)
		}
	}
	return p
}

func (r *Renderer[T]) resolveCell(day time.Time, bucket grid.DayBucket[T]) DayEvents[T] {
	res := layout.Resolve(day, bucket, r.opts.policy(), r.opts.WeekStart, r.opts.MaxVisibleEvents)
	de := DayEvents[T]{
		Date:     day,
		Visible:  res.Visible,
		Overflow: res.Overflow,
	}
	if res.Overflow > 0 {
		de.MoreLabel = MoreLabelText(r.opts.MoreLabel, res.Overflow)
	}
	return de
}

func (r *Renderer[T]) placeholder(index int) *RenderedPage[T] {
	anchor := r.v.DateForPage(index)
	title := anchor.Format("January 2006")
	if r.v.Unit() != pager.UnitMonth {
		title = RangeTitle(anchor, r.v.SpanEnd(index).AddDate(0, 0, -1))
	}
	return &RenderedPage[T]{
		Index:       index,
		AnchorDate:  anchor,
		Title:       title,
		Placeholder: true,
	}
}

// spanGrid builds a single-row-per-day pseudo grid covering
// [start, end), so day and 3-day pages can share the bucket index.
func spanGrid(start, end time.Time, weekStart time.Weekday) grid.MonthGrid {
	g := grid.MonthGrid{Target: start, WeekStart: weekStart}
	for cur := start; cur.Before(end); cur = cur.AddDate(0, 0, 1) {
		row := make(grid.WeekRow, grid.DaysPerWeek)
		row[0] = grid.DayCell{Date: cur, Valid: true, InCurrentMonth: true}
		g.Weeks = append(g.Weeks, row)
	}
	return g
}

// RangeTitle formats a header label for a date range the way the demo
// header does: "Jan 02, 2006" for a single day, collapsing the month and
// year when both ends share them.
func RangeTitle(start, end time.Time) string {
	if grid.StartOfDay(start).Equal(grid.StartOfDay(end)) {
		return start.Format("Jan 02, 2006")
	}
	sameYear := start.Year() == end.Year()
	sameMonth := sameYear && start.Month() == end.Month()
	switch {
	case sameMonth:
		return start.Format("Jan 02") + " - " + end.Format("02, 2006")
	case sameYear:
		return start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006")
	default:
		return start.Format("Jan 02, 2006") + " - " + end.Format("Jan 02, 2006")
	}
}
