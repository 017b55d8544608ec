package expiry

import (
	"fmt"
	"strings"
	"time"
)

// Category is the freshness bucket of an item.
type Category string

const (
	Urgent Category = "urgent"
	Soon   Category = "soon"
	Fresh  Category = "fresh"
)

const (
	urgentDays = 2
	soonDays   = 5

	// FreshHorizon is the number of days at which Progress saturates at 1.0.
	FreshHorizon = 10
)

// AllCategories returns the buckets from most to least pressing.
func AllCategories() []Category {
	return []Category{Urgent, Soon, Fresh}
}

// Status is the classification result for a single expiry date.
type Status struct {
	Category Category
	DaysLeft int
	Progress float64
}

// Classify buckets expiry relative to now. Both instants are reduced to their
// calendar day in now's location, so the result only changes at midnight.
func Classify(expiry, now time.Time) Status {
	days := DaysBetween(now, expiry)

	cat := Fresh
	switch {
	case days <= urgentDays:
		cat = Urgent
	case days <= soonDays:
		cat = Soon
	}

	return Status{
		Category: cat,
		DaysLeft: days,
		Progress: progress(days),
	}
}

// DaysBetween counts whole calendar days from from to to.
func DaysBetween(from, to time.Time) int {
	loc := from.Location()
	a := midnight(from, loc)
	b := midnight(to.In(loc), loc)

	// Rebuild both days in UTC so DST transitions cannot shorten a day.
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func progress(days int) float64 {
	if days <= 0 {
		return 0
	}
	if days >= FreshHorizon {
		return 1
	}
	return float64(days) / FreshHorizon
}

// ParseCategory accepts a bucket name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (valid: urgent, soon, fresh)", s)
}

// Label renders the days-left count for humans.
func Label(s Status) string {
	switch {
	case s.DaysLeft < -1:
		return fmt.Sprintf("expired %d days ago", -s.DaysLeft)
	case s.DaysLeft == -1:
		return "expired yesterday"
	case s.DaysLeft == 0:
		return "expires today"
	case s.DaysLeft == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", s.DaysLeft)
	}
}
