package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/store"
)

func TestTruncateStr(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"test", 0, ""},
	}
	for _, tt := range tests {
		got := truncateStr(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncateStr(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateStrUTF8(t *testing.T) {
	got := truncateStr("日本語テスト", 5)
	want := "日本..."
	if got != want {
		t.Errorf("truncateStr(Japanese, 5) = %q, want %q", got, want)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, "░░░░░░░░░░"},
		{0.5, "█████░░░░░"},
		{1, "██████████"},
		{1.5, "██████████"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.p, 10); got != tt.want {
			t.Errorf("progressBar(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
	if progressBar(0.5, 0) != "" {
		t.Error("expected empty bar for zero width")
	}
}

func TestRenderListItem(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	it := store.Item{
		Name:       "Milk",
		Category:   classify.Dairy,
		ExpiryDate: time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
	}

	got := renderListItem(it, now, true, 40)
	for _, want := range []string{"> Milk", "3 days left", "Dairy & Eggs"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestRenderListEmpty(t *testing.T) {
	got := renderList(nil, time.Now(), 0, 9, 40)
	if !strings.Contains(got, "Nothing in the larder") {
		t.Errorf("expected empty message, got %q", got)
	}
}
