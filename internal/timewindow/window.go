// Package timewindow scopes deals into named or explicit reporting periods.
// Every function takes the reference time as a parameter; nothing here reads
// the ambient wall clock, so window math is deterministic under test.
package timewindow

import (
	"fmt"
	"time"
)

// Name identifies a supported named window.
type Name string

const (
	ThisMonth   Name = "this-month"
	LastMonth   Name = "last-month"
	LastQuarter Name = "last-quarter"
	YearToDate  Name = "ytd"
	LastYear    Name = "last-year"
	AllTime     Name = "all-time"
	Custom      Name = "custom"
)

// Window is a named period or, when Name is Custom, an explicit range.
type Window struct {
	Name  Name      `json:"name"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Named returns a Window for a period name, defaulting unknown names to
// this-month rather than failing.
func Named(name string) Window {
	switch Name(name) {
	case ThisMonth, LastMonth, LastQuarter, YearToDate, LastYear, AllTime:
		return Window{Name: Name(name)}
	default:
		return Window{Name: ThisMonth}
	}
}

// Range returns an explicit custom window; both endpoints are inclusive at
// day granularity.
func Range(start, end time.Time) Window {
	return Window{Name: Custom, Start: start, End: end}
}

// Bounds resolves a window to concrete start and end days relative to now.
// The second return is false for all-time, which has no bounds.
func Bounds(w Window, now time.Time) (start, end time.Time, bounded bool) {
	year, month, _ := now.Date()
	loc := now.Location()

	switch w.Name {
	case ThisMonth:
		start = time.Date(year, month, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, -1)
	case LastMonth:
		start = time.Date(year, month, 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0)
		end = start.AddDate(0, 1, -1)
	case LastQuarter:
		q := (int(month) - 1) / 3
		qYear := year
		q--
		if q < 0 {
			// Q1 wraps to the previous year's Q4.
			q = 3
			qYear--
		}
		start = time.Date(qYear, time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 3, -1)
	case YearToDate:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		end = now
	case LastYear:
		start = time.Date(year-1, time.January, 1, 0, 0, 0, 0, loc)
		end = time.Date(year-1, time.December, 31, 0, 0, 0, 0, loc)
	case Custom:
		start, end = w.Start, w.End
	default:
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

// InWindow reports whether a deal date falls inside the window relative to
// now. Both endpoints are inclusive at day granularity.
func InWindow(dealDate time.Time, w Window, now time.Time) bool {
	start, end, bounded := Bounds(w, now)
	if !bounded {
		return true
	}

	day := truncateToDay(dealDate)
	return !day.Before(truncateToDay(start)) && !day.After(truncateToDay(end))
}

// Label formats a window for dashboard headers, e.g. "August 2026" or "Q2 2026".
func Label(w Window, now time.Time) string {
	switch w.Name {
	case ThisMonth:
		return now.Format("January 2006")
	case LastMonth:
		// AddDate normalizes month-end dates forward (Mar 31 minus one
		// month lands in March), so derive the month from the window start.
		start, _, _ := Bounds(w, now)
		return start.Format("January 2006")
	case LastQuarter:
		start, _, _ := Bounds(w, now)
		return fmt.Sprintf("Q%d %d", (int(start.Month())-1)/3+1, start.Year())
	case YearToDate:
		return fmt.Sprintf("%d YTD", now.Year())
	case LastYear:
		return fmt.Sprintf("%d", now.Year()-1)
	case AllTime:
		return "All Time"
	case Custom:
		return fmt.Sprintf("%s – %s", w.Start.Format("Jan 2, 2006"), w.End.Format("Jan 2, 2006"))
	default:
		return string(w.Name)
	}
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
