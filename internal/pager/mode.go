package pager

import (
	"time"

	"bigcal/internal/grid"
)

// Mode is the active calendar view.
type Mode int

const (
	ModeDay Mode = iota
	ModeThreeDays
	ModeMonth
	ModeSchedule
)

func (m Mode) String() string {
	switch m {
	case ModeDay:
		return "day"
	case ModeThreeDays:
		return "3days"
	case ModeMonth:
		return "month"
	default:
		return "schedule"
	}
}

// ParseMode maps a wire-format mode name onto a Mode. Unknown names fall
// back to ModeMonth, the default view.
func ParseMode(s string) Mode {
	switch s {
	case "day":
		return ModeDay
	case "3days":
		return ModeThreeDays
	case "schedule":
		return ModeSchedule
	default:
		return ModeMonth
	}
}

func (m Mode) unit() (Unit, bool) {
	switch m {
	case ModeDay:
		return UnitDay, true
	case ModeThreeDays:
		return UnitThreeDays, true
	case ModeMonth:
		return UnitMonth, true
	default:
		return UnitDay, false // schedule carries no page index
	}
}

// Controller is the view-mode state machine. It owns one Virtualizer per
// paged mode (all sharing the same date window) and an anchor date that
// survives transitions, so switching day ⇄ 3-day ⇄ month keeps the user
// on the period they were looking at instead of snapping back to a fixed
// initial page. The passive schedule mode has no page index; leaving it
// reuses the last known anchor.
type Controller struct {
	cfg    Config
	now    func() time.Time
	mode   Mode
	anchor time.Time
	pagers map[Mode]*Virtualizer
}

// NewController builds a Controller starting in initial mode, anchored on
// cfg.BaseDate. cfg.OnPageChanged is propagated to every paged mode.
func NewController(cfg Config, initial Mode) *Controller {
	if cfg.BaseDate.IsZero() {
		cfg.BaseDate = time.Now()
	}
	c := &Controller{
		cfg:    cfg,
		now:    time.Now,
		mode:   initial,
		anchor: grid.StartOfDay(cfg.BaseDate),
		pagers: make(map[Mode]*Virtualizer, 3),
	}
	for _, m := range []Mode{ModeDay, ModeThreeDays, ModeMonth} {
		mc := cfg
		mc.Unit, _ = m.unit()
		c.pagers[m] = New(mc)
	}
	return c
}

// Mode returns the active view mode.
func (c *Controller) Mode() Mode { return c.mode }

// Anchor returns the date the active view is considered to display.
func (c *Controller) Anchor() time.Time { return c.anchor }

// Virtualizer returns the pager backing mode, or nil for ModeSchedule.
func (c *Controller) Virtualizer(mode Mode) *Virtualizer {
	return c.pagers[mode]
}

// CurrentIndex returns the committed page index of the active mode, or -1
// in schedule mode.
func (c *Controller) CurrentIndex() int {
	v := c.pagers[c.mode]
	if v == nil {
		return -1
	}
	return v.Current()
}

// GoTo commits a page index in the active mode and refreshes the anchor to
// that page's date. No-op in schedule mode.
func (c *Controller) GoTo(index int) {
	v := c.pagers[c.mode]
	if v == nil {
		return
	}
	v.SetPage(index)
	c.anchor = v.DateForPage(v.Current())
}

// Switch transitions to mode. The target anchor is today when today is
// visible in the currently displayed period, otherwise the first day of
// that period; the new mode's page index is derived from the anchor. Any
// state may transition to any other; no transition is terminal.
func (c *Controller) Switch(mode Mode) {
	if mode == c.mode {
		return
	}

	if v := c.pagers[c.mode]; v != nil {
		start := v.DateForPage(v.Current())
		end := v.SpanEnd(v.Current())
		today := grid.StartOfDay(c.now().In(start.Location()))
		if !today.Before(start) && today.Before(end) {
			c.anchor = today
		} else {
			c.anchor = start
		}
	}
	// Leaving schedule mode: c.anchor already holds the last known anchor.

	c.mode = mode
	if v := c.pagers[mode]; v != nil {
		v.SetPage(v.PageForDate(c.anchor))
	}
}
