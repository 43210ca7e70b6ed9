package grid

import "time"

// DaysPerWeek is the number of cells in every week row.
const DaysPerWeek = 7

// DayKeyFormat is the canonical day-granularity key used to address
// calendar days in buckets and rendered pages.
const DayKeyFormat = "2006-01-02"

// DayKey returns the canonical day key for t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// StartOfDay returns midnight of t's calendar day, preserving the location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the first day of the week containing t,
// where weekStart defines which weekday opens a week.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	d := StartOfDay(t)
	back := (int(d.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	return d.AddDate(0, 0, -back)
}

// DayCell is one grid position. Valid is false for blank placeholder slots,
// which only occur when adjacent months are excluded and the week row has no
// corresponding day in the target month.
type DayCell struct {
	Date           time.Time
	Valid          bool
	InCurrentMonth bool
}

// WeekRow is an ordered sequence of exactly DaysPerWeek cells.
type WeekRow []DayCell

// MonthGrid is the ordered sequence of week rows covering the calendar
// weeks that intersect the target month. It is a pure value: built once,
// never mutated, discarded when its page is no longer rendered.
type MonthGrid struct {
	Target    time.Time
	WeekStart time.Weekday
	Weeks     []WeekRow
}

// RangeStart returns the inclusive start (midnight) of the grid's visible
// span: the first valid cell date.
func (g MonthGrid) RangeStart() time.Time {
	for _, w := range g.Weeks {
		for _, c := range w {
			if c.Valid {
				return c.Date
			}
		}
	}
	return StartOfDay(g.Target)
}

// RangeEnd returns the exclusive end of the grid's visible span: midnight
// after the last valid cell date.
func (g MonthGrid) RangeEnd() time.Time {
	for i := len(g.Weeks) - 1; i >= 0; i-- {
		for j := DaysPerWeek - 1; j >= 0; j-- {
			if c := g.Weeks[i][j]; c.Valid {
				return c.Date.AddDate(0, 0, 1)
			}
		}
	}
	return StartOfDay(g.Target).AddDate(0, 0, 1)
}

// Days returns every valid cell date in grid order.
func (g MonthGrid) Days() []time.Time {
	out := make([]time.Time, 0, len(g.Weeks)*DaysPerWeek)
	for _, w := range g.Weeks {
		for _, c := range w {
			if c.Valid {
				out = append(out, c.Date)
			}
		}
	}
	return out
}

// Build computes the month grid for targetDate's month.
//
// With includeAdjacent, the grid extends backward to the start of the week
// containing the 1st and forward to the end of the week containing the last
// day of the month; every cell is valid and InCurrentMonth marks whether the
// date belongs to the target month. Without it, rows keep their fixed length
// but days outside the month become blank placeholder cells, so the first
// and/or last row may hold fewer than seven real dates.
//
// Build is a pure function of its inputs: repeated calls with identical
// arguments produce identical grids.
func Build(targetDate time.Time, weekStart time.Weekday, includeAdjacent bool) MonthGrid {
	loc := targetDate.Location()
	first := time.Date(targetDate.Year(), targetDate.Month(), 1, 0, 0, 0, 0, loc)
	daysInMonth := time.Date(targetDate.Year(), targetDate.Month()+1, 0, 0, 0, 0, 0, loc).Day()
	last := first.AddDate(0, 0, daysInMonth-1)

	g := MonthGrid{Target: StartOfDay(targetDate), WeekStart: weekStart}

	if includeAdjacent {
		cur := StartOfWeek(first, weekStart)
		end := StartOfWeek(last, weekStart).AddDate(0, 0, DaysPerWeek-1)
		for !cur.After(end) {
			row := make(WeekRow, 0, DaysPerWeek)
			for i := 0; i < DaysPerWeek; i++ {
				row = append(row, DayCell{
					Date:           cur,
					Valid:          true,
					InCurrentMonth: cur.Month() == first.Month() && cur.Year() == first.Year(),
				})
				cur = cur.AddDate(0, 0, 1)
			}
			g.Weeks = append(g.Weeks, row)
		}
		return g
	}

	// Leading blanks before the 1st, then the month's days, then trailing
	// blanks to fill the last row.
	lead := (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	rows := (lead + daysInMonth + DaysPerWeek - 1) / DaysPerWeek

	day := 0
	for r := 0; r < rows; r++ {
		row := make(WeekRow, DaysPerWeek)
		for i := 0; i < DaysPerWeek; i++ {
			cell := r*DaysPerWeek + i
			if cell < lead || day >= daysInMonth {
				continue // blank placeholder
			}
			row[i] = DayCell{
				Date:           first.AddDate(0, 0, day),
				Valid:          true,
				InCurrentMonth: true,
			}
			day++
		}
		g.Weeks = append(g.Weeks, row)
	}
	return g
}
