package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/expiry"
	"github.com/matheuskafuri/larder/internal/store"
)

var now = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleItems() []store.Item {
	return []store.Item{
		{Name: "Apples", Category: classify.Produce, ExpiryDate: day(20)},
		{Name: "Milk", Category: classify.Dairy, ExpiryDate: day(11)},
		{Name: "Spinach", Category: classify.Produce, ExpiryDate: day(12)},
		{Name: "Yogurt", Category: classify.Dairy, ExpiryDate: day(14)},
		{Name: "Salmon", Category: classify.Seafood, ExpiryDate: day(9)},
		{Name: "Carrots", Category: classify.Produce, ExpiryDate: day(25)},
	}
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{8, "Good morning"},
		{12, "Good afternoon"},
		{17, "Good evening"},
		{0, "Good morning"},
	}

	for _, tt := range tests {
		got := greeting(time.Date(2024, 1, 1, tt.hour, 0, 0, 0, time.UTC))
		if got != tt.expected {
			t.Errorf("hour %d: expected %q, got %q", tt.hour, tt.expected, got)
		}
	}
}

func TestBuildCounts(t *testing.T) {
	d := Build(sampleItems(), now, 5)

	if d.Total != 6 {
		t.Errorf("expected 6 items, got %d", d.Total)
	}
	want := map[expiry.Category]int{expiry.Urgent: 3, expiry.Soon: 1, expiry.Fresh: 2}
	for cat, n := range want {
		if d.Counts[cat] != n {
			t.Errorf("%s: expected %d, got %d", cat, n, d.Counts[cat])
		}
	}
}

func TestBuildUseFirst(t *testing.T) {
	d := Build(sampleItems(), now, 5)

	names := []string{"Salmon", "Milk", "Spinach", "Yogurt"}
	if len(d.UseFirst) != len(names) {
		t.Fatalf("expected %d cards, got %d", len(names), len(d.UseFirst))
	}
	for i, name := range names {
		if d.UseFirst[i].Item.Name != name {
			t.Errorf("card %d: expected %s, got %s", i, name, d.UseFirst[i].Item.Name)
		}
		if d.UseFirst[i].Index != i+1 {
			t.Errorf("card %d: expected index %d, got %d", i, i+1, d.UseFirst[i].Index)
		}
	}
	if d.UseFirst[0].Label != "expired yesterday" {
		t.Errorf("expected salmon to be expired yesterday, got %q", d.UseFirst[0].Label)
	}

	capped := Build(sampleItems(), now, 2)
	if len(capped.UseFirst) != 2 {
		t.Errorf("expected use-first capped at 2, got %d", len(capped.UseFirst))
	}
}

func TestBuildEmpty(t *testing.T) {
	d := Build(nil, now, 5)
	if d.Total != 0 || len(d.UseFirst) != 0 || len(d.Groups) != 0 {
		t.Errorf("expected empty digest, got %+v", d)
	}
	if d.TopCategories != "" {
		t.Errorf("expected no top categories, got %q", d.TopCategories)
	}
}

func TestTopCategories(t *testing.T) {
	got := topCategories(sampleItems())
	if !strings.HasPrefix(got, "Produce (3)") {
		t.Errorf("expected produce first, got %q", got)
	}
	if !strings.Contains(got, "Dairy & Eggs (2)") {
		t.Errorf("expected dairy in result, got %q", got)
	}
}

func TestFilter(t *testing.T) {
	urgent := Filter(sampleItems(), expiry.Urgent, now)
	if len(urgent) != 3 {
		t.Errorf("expected 3 urgent items, got %d", len(urgent))
	}
	if all := Filter(sampleItems(), "", now); len(all) != 6 {
		t.Errorf("expected no filtering for empty status, got %d", len(all))
	}
}

func TestSortByExpiryDoesNotMutate(t *testing.T) {
	items := sampleItems()
	sorted := SortByExpiry(items)
	if sorted[0].Name != "Salmon" || sorted[len(sorted)-1].Name != "Carrots" {
		t.Errorf("unexpected order %v", sorted)
	}
	if items[0].Name != "Apples" {
		t.Error("input slice was reordered")
	}
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory(SortByExpiry(sampleItems()))
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Category != classify.Produce || len(groups[0].Items) != 3 {
		t.Errorf("expected produce group first, got %+v", groups[0])
	}
	if groups[0].Items[0].Name != "Spinach" {
		t.Errorf("expected spinach first in produce, got %s", groups[0].Items[0].Name)
	}
}

type fakeLister struct {
	items []store.Item
	err   error
	opts  store.ListOpts
}

func (f *fakeLister) ListItems(ctx context.Context, opts store.ListOpts) ([]store.Item, error) {
	f.opts = opts
	return f.items, f.err
}

func TestGenerate(t *testing.T) {
	lister := &fakeLister{items: sampleItems()}
	d, err := Generate(context.Background(), GenerateOpts{DB: lister, Now: now, Category: classify.Dairy})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if lister.opts.Category != classify.Dairy {
		t.Errorf("expected category passed through, got %q", lister.opts.Category)
	}
	if d.DateLabel != "Wed Jan 10" {
		t.Errorf("unexpected date label %q", d.DateLabel)
	}

	_, err = Generate(context.Background(), GenerateOpts{DB: &fakeLister{err: errors.New("boom")}, Now: now})
	if err == nil {
		t.Error("expected error from lister")
	}
}
