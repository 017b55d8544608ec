package expiry

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestClassifyThresholds(t *testing.T) {
	today := day(2024, time.January, 10, 9)

	tests := []struct {
		expiry   time.Time
		wantCat  Category
		wantDays int
	}{
		{day(2024, time.January, 11, 0), Urgent, 1},
		{day(2024, time.January, 14, 0), Soon, 4},
		{day(2024, time.January, 20, 0), Fresh, 10},
		{day(2024, time.January, 9, 0), Urgent, -1},
		{day(2024, time.January, 10, 23), Urgent, 0},
		{day(2024, time.January, 12, 0), Urgent, 2},
		{day(2024, time.January, 13, 0), Soon, 3},
		{day(2024, time.January, 15, 0), Soon, 5},
		{day(2024, time.January, 16, 0), Fresh, 6},
	}

	for _, tt := range tests {
		got := Classify(tt.expiry, today)
		if got.Category != tt.wantCat {
			t.Errorf("Classify(%s): expected %s, got %s", tt.expiry.Format("2006-01-02"), tt.wantCat, got.Category)
		}
		if got.DaysLeft != tt.wantDays {
			t.Errorf("Classify(%s): expected daysLeft %d, got %d", tt.expiry.Format("2006-01-02"), tt.wantDays, got.DaysLeft)
		}
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	expiry := day(2024, time.January, 14, 0)
	early := Classify(expiry, day(2024, time.January, 10, 0))
	late := Classify(expiry, time.Date(2024, time.January, 10, 23, 59, 59, 0, time.UTC))
	if early != late {
		t.Errorf("expected same status within a day, got %+v and %+v", early, late)
	}
}

func TestClassifyAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, loc)
	expiry := time.Date(2024, time.March, 11, 0, 0, 0, 0, loc)
	if got := Classify(expiry, now).DaysLeft; got != 2 {
		t.Errorf("expected 2 days across DST change, got %d", got)
	}
}

func TestProgress(t *testing.T) {
	now := day(2024, time.January, 10, 0)
	if p := Classify(day(2024, time.January, 5, 0), now).Progress; p != 0 {
		t.Errorf("expected progress 0 for expired item, got %v", p)
	}
	if p := Classify(day(2024, time.January, 15, 0), now).Progress; p != 0.5 {
		t.Errorf("expected progress 0.5, got %v", p)
	}
	if p := Classify(day(2024, time.February, 1, 0), now).Progress; p != 1 {
		t.Errorf("expected progress capped at 1, got %v", p)
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory(" Urgent "); err != nil || c != Urgent {
		t.Errorf("expected urgent, got %q (%v)", c, err)
	}
	if _, err := ParseCategory("stale"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-3, "expired 3 days ago"},
		{-1, "expired yesterday"},
		{0, "expires today"},
		{1, "1 day left"},
		{4, "4 days left"},
	}
	for _, tt := range tests {
		if got := Label(Status{DaysLeft: tt.days}); got != tt.want {
			t.Errorf("Label(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
