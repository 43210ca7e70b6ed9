// Package pager maps calendar dates onto a linear, bounded sequence of
// page indices and decides which pages deserve real content at any time.
// Pages are addressed relative to a fixed minimum date, so the mapping is
// a pure function in both directions and survives restarts.
package pager

import (
	"time"

	"bigcal/internal/grid"
)

// Unit is the span of calendar content one page covers.
type Unit int

const (
	UnitDay Unit = iota
	UnitThreeDays
	UnitMonth
)

func (u Unit) String() string {
	switch u {
	case UnitThreeDays:
		return "3days"
	case UnitMonth:
		return "month"
	default:
		return "day"
	}
}

const (
	// DefaultHorizonYears bounds the page window to base date ±5 years when
	// the caller supplies no explicit min/max.
	DefaultHorizonYears = 5

	// DefaultCacheRadius mirrors the offscreen page limit of the demo
	// pager: current page ±3 hold real content, the rest are placeholders.
	DefaultCacheRadius = 3
)

// Config fixes a Virtualizer's anchor and bounds.
type Config struct {
	// BaseDate anchors the default window. Zero means "now".
	BaseDate time.Time

	// MinDate / MaxDate bound the page index space. Zero values default to
	// BaseDate minus/plus DefaultHorizonYears.
	MinDate time.Time
	MaxDate time.Time

	Unit Unit

	// CacheRadius is the number of pages on each side of the current one
	// that are materialized. Zero means DefaultCacheRadius.
	CacheRadius int

	// OnPageChanged, if set, is invoked exactly once per committed index
	// change.
	OnPageChanged func(index int)
}

// Virtualizer owns the current page index for one view unit. All date math
// happens at day granularity in MinDate's location, so DST shifts cannot
// skew the index space.
type Virtualizer struct {
	cfg     Config
	min     time.Time // normalized: start of day, or first of month for UnitMonth
	max     time.Time
	current int
}

// New builds a Virtualizer and positions it on the page containing
// BaseDate.
func New(cfg Config) *Virtualizer {
	if cfg.BaseDate.IsZero() {
		cfg.BaseDate = time.Now()
	}
	if cfg.MinDate.IsZero() {
		cfg.MinDate = cfg.BaseDate.AddDate(-DefaultHorizonYears, 0, 0)
	}
	if cfg.MaxDate.IsZero() {
		cfg.MaxDate = cfg.BaseDate.AddDate(DefaultHorizonYears, 0, 0)
	}
	if cfg.CacheRadius <= 0 {
		cfg.CacheRadius = DefaultCacheRadius
	}

	v := &Virtualizer{cfg: cfg}
	v.min = grid.StartOfDay(cfg.MinDate)
	v.max = grid.StartOfDay(cfg.MaxDate)
	if cfg.Unit == UnitMonth {
		v.min = time.Date(v.min.Year(), v.min.Month(), 1, 0, 0, 0, 0, v.min.Location())
	}
	if v.max.Before(v.min) {
		v.max = v.min
	}
	v.current = v.PageForDate(cfg.BaseDate)
	return v
}

// Unit returns the page unit.
func (v *Virtualizer) Unit() Unit { return v.cfg.Unit }

// CacheRadius returns the configured materialization radius.
func (v *Virtualizer) CacheRadius() int { return v.cfg.CacheRadius }

// TotalPages is the size of the clamped index space.
func (v *Virtualizer) TotalPages() int {
	days := daysBetween(v.min, v.max)
	switch v.cfg.Unit {
	case UnitThreeDays:
		return (days + 3) / 3 // ceil((days+1)/3)
	case UnitMonth:
		return monthsBetween(v.min, v.max) + 1
	default:
		return days + 1
	}
}

// PageForDate maps a date to the index of the page containing it, clamped
// to the valid range.
func (v *Virtualizer) PageForDate(d time.Time) int {
	var idx int
	switch v.cfg.Unit {
	case UnitThreeDays:
		idx = daysBetween(v.min, d) / 3
	case UnitMonth:
		idx = monthsBetween(v.min, d)
	default:
		idx = daysBetween(v.min, d)
	}
	return v.ClampIndex(idx)
}

// DateForPage maps an index to the page's boundary-aligned anchor date
// (the page's first day; for UnitMonth the first of the month). The index
// is clamped before mapping.
func (v *Virtualizer) DateForPage(index int) time.Time {
	index = v.ClampIndex(index)
	switch v.cfg.Unit {
	case UnitThreeDays:
		return v.min.AddDate(0, 0, index*3)
	case UnitMonth:
		return v.min.AddDate(0, index, 0)
	default:
		return v.min.AddDate(0, 0, index)
	}
}

// SpanEnd returns the exclusive end of the page's date span.
func (v *Virtualizer) SpanEnd(index int) time.Time {
	anchor := v.DateForPage(index)
	switch v.cfg.Unit {
	case UnitThreeDays:
		return anchor.AddDate(0, 0, 3)
	case UnitMonth:
		return anchor.AddDate(0, 1, 0)
	default:
		return anchor.AddDate(0, 0, 1)
	}
}

// ClampIndex clamps an index into [0, TotalPages()-1]. Out-of-range
// requests are a data-shape anomaly, not an error.
func (v *Virtualizer) ClampIndex(index int) int {
	if index < 0 {
		return 0
	}
	if last := v.TotalPages() - 1; index > last {
		return last
	}
	return index
}

// Current returns the committed page index.
func (v *Virtualizer) Current() int { return v.current }

// SetPage commits a new page index (clamped) and reports whether the index
// actually changed. OnPageChanged fires once per committed change.
func (v *Virtualizer) SetPage(index int) bool {
	index = v.ClampIndex(index)
	if index == v.current {
		return false
	}
	v.current = index
	if v.cfg.OnPageChanged != nil {
		v.cfg.OnPageChanged(index)
	}
	return true
}

// GoToDate positions the virtualizer on the page containing d.
func (v *Virtualizer) GoToDate(d time.Time) bool {
	return v.SetPage(v.PageForDate(d))
}

// MaterializedRange returns the inclusive index range around current that
// should hold real content; pages outside render as cheap placeholders.
func (v *Virtualizer) MaterializedRange(current, radius int) (start, end int) {
	start = current - radius
	if start < 0 {
		start = 0
	}
	end = current + radius
	if last := v.TotalPages() - 1; end > last {
		end = last
	}
	return start, end
}

// daysBetween counts calendar days from a to b, negative when b precedes a.
// Both are reduced to UTC-normalized dates first so DST transitions in the
// source location cannot produce off-by-one results.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
