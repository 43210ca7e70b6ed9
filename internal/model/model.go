package model

import "time"

// Event is the minimal capability the layout engine requires from a
// calendar event: a start instant, an end instant and a title. Concrete
// event types may carry any number of extra fields; the engine never
// inspects them and never mutates an event, it only reads and re-orders
// references.
type Event interface {
	EventStart() time.Time
	EventEnd() time.Time
	EventTitle() string
}

// BasicEvent is the smallest possible Event implementation. It is what the
// demo application uses for ad-hoc events and what most tests construct.
type BasicEvent struct {
	Title string
	Start time.Time
	End   time.Time
}

func (e BasicEvent) EventStart() time.Time { return e.Start }
func (e BasicEvent) EventEnd() time.Time   { return e.End }
func (e BasicEvent) EventTitle() string    { return e.Title }

// Occurrence is a single concrete instance of a subscribed calendar event
// (after recurrence expansion and timezone normalization). It satisfies
// Event so expanded ICS feeds can be fed straight into the layout engine.
type Occurrence struct {
	SourceID string // calendar source ID (e.g., config ICS ID)
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

func (o Occurrence) EventStart() time.Time { return o.Start }
func (o Occurrence) EventEnd() time.Time   { return o.End }
func (o Occurrence) EventTitle() string    { return o.Summary }
