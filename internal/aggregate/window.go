// Package aggregate computes an account's windowed spending totals.
//
// This file implements the Strategy Pattern for calendar windows. Each window
// (day, week, month, year) has its own matcher that decides whether a
// transaction timestamp falls in the same period as the reference instant.
package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// Window identifies a calendar period relative to the recompute instant.
type Window string

const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
	Year  Window = "year"
)

// WeekScheme selects how weeks are numbered for the week window.
type WeekScheme string

const (
	// WeekMonday numbers weeks like strftime %W: weeks start on Monday and
	// the days before the first Monday of the year are week 0.
	WeekMonday WeekScheme = "monday"
	// WeekSunday numbers weeks like strftime %U.
	WeekSunday WeekScheme = "sunday"
	// WeekISO uses ISO-8601 weeks, keyed by ISO year.
	WeekISO WeekScheme = "iso"
)

// ParseWeekScheme accepts "monday", "sunday" or "iso".
func ParseWeekScheme(s string) (WeekScheme, error) {
	switch ws := WeekScheme(strings.ToLower(strings.TrimSpace(s))); ws {
	case WeekMonday, WeekSunday, WeekISO:
		return ws, nil
	}
	return "", fmt.Errorf("unknown week scheme: %q", s)
}

// WindowMatcher is the strategy interface for calendar windows.
type WindowMatcher interface {
	// Contains reports whether ts lies in the window that contains now.
	// Both times must already be in the same location.
	Contains(ts, now time.Time) bool
}

type DayMatcher struct{}

func (DayMatcher) Contains(ts, now time.Time) bool {
	ty, tm, td := ts.Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// WeekMatcher compares (year, week number) pairs under a WeekScheme.
type WeekMatcher struct {
	Scheme WeekScheme
}

func (m WeekMatcher) Contains(ts, now time.Time) bool {
	ty, tw := WeekKey(ts, m.Scheme)
	ny, nw := WeekKey(now, m.Scheme)
	return ty == ny && tw == nw
}

type MonthMatcher struct{}

func (MonthMatcher) Contains(ts, now time.Time) bool {
	return ts.Year() == now.Year() && ts.Month() == now.Month()
}

type YearMatcher struct{}

func (YearMatcher) Contains(ts, now time.Time) bool {
	return ts.Year() == now.Year()
}

// WeekKey returns the (year, week) pair of t under the given scheme.
// Unknown schemes fall back to WeekMonday.
func WeekKey(t time.Time, scheme WeekScheme) (year, week int) {
	switch scheme {
	case WeekISO:
		return t.ISOWeek()
	case WeekSunday:
		return t.Year(), weekOfYear(t, time.Sunday)
	default:
		return t.Year(), weekOfYear(t, time.Monday)
	}
}

// weekOfYear counts weeks starting on first, 0 for days before the first
// such weekday of the year.
func weekOfYear(t time.Time, first time.Weekday) int {
	yday := t.YearDay() - 1
	offset := (int(t.Weekday()) - int(first) + 7) % 7
	return (yday + 7 - offset) / 7
}

// Matchers returns the matcher for every window, in display order.
func Matchers(scheme WeekScheme) map[Window]WindowMatcher {
	return map[Window]WindowMatcher{
		Day:   DayMatcher{},
		Week:  WeekMatcher{Scheme: scheme},
		Month: MonthMatcher{},
		Year:  YearMatcher{},
	}
}
