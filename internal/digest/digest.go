package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/expiry"
	"github.com/matheuskafuri/larder/internal/store"
)

// Digest is the at-a-glance summary of the larder for one day.
type Digest struct {
	DateLabel     string
	Greeting      string
	Total         int
	Counts        map[expiry.Category]int
	UseFirst      []Card
	Groups        []Group
	TopCategories string
}

// Card is one item worth attention, with its freshness computed for the
// digest date.
type Card struct {
	Item   store.Item
	Index  int
	Status expiry.Status
	Label  string
}

// Group is the items of one category, soonest expiry first.
type Group struct {
	Category classify.Category
	Items    []store.Item
}

// ItemLister is the slice of the inventory store Generate needs.
type ItemLister interface {
	ListItems(ctx context.Context, opts store.ListOpts) ([]store.Item, error)
}

type GenerateOpts struct {
	DB           ItemLister
	Now          time.Time
	UseFirstSize int
	Category     classify.Category
}

// Generate builds the digest from every stored item.
func Generate(ctx context.Context, opts GenerateOpts) (*Digest, error) {
	if opts.UseFirstSize <= 0 {
		opts.UseFirstSize = 5
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	items, err := opts.DB.ListItems(ctx, store.ListOpts{Category: opts.Category})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return Build(items, opts.Now, opts.UseFirstSize), nil
}

// Build summarizes items as of now. The use-first list holds urgent and
// soon items in expiry order, capped at size.
func Build(items []store.Item, now time.Time, size int) *Digest {
	d := &Digest{
		DateLabel: now.Format("Mon Jan 2"),
		Greeting:  greeting(now),
		Total:     len(items),
		Counts:    make(map[expiry.Category]int, len(expiry.AllCategories())),
	}
	for _, c := range expiry.AllCategories() {
		d.Counts[c] = 0
	}

	sorted := SortByExpiry(items)
	for _, it := range sorted {
		st := expiry.Classify(it.ExpiryDate, now)
		d.Counts[st.Category]++
		if st.Category == expiry.Fresh || len(d.UseFirst) >= size {
			continue
		}
		d.UseFirst = append(d.UseFirst, Card{
			Item:   it,
			Index:  len(d.UseFirst) + 1,
			Status: st,
			Label:  expiry.Label(st),
		})
	}

	d.Groups = GroupByCategory(sorted)
	d.TopCategories = topCategories(sorted)
	return d
}

// Filter keeps the items whose freshness at now equals status. An empty
// status keeps everything.
func Filter(items []store.Item, status expiry.Category, now time.Time) []store.Item {
	if status == "" {
		return items
	}
	var out []store.Item
	for _, it := range items {
		if expiry.Classify(it.ExpiryDate, now).Category == status {
			out = append(out, it)
		}
	}
	return out
}

// SortByExpiry returns a copy of items ordered soonest first, ties by name.
func SortByExpiry(items []store.Item) []store.Item {
	out := append([]store.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GroupByCategory groups items in category display order, keeping the
// input order within each group. Empty categories are omitted.
func GroupByCategory(items []store.Item) []Group {
	byCat := map[classify.Category][]store.Item{}
	for _, it := range items {
		cat := it.Category
		if cat == "" {
			cat = classify.Other
		}
		byCat[cat] = append(byCat[cat], it)
	}

	var groups []Group
	for _, cat := range classify.AllCategories() {
		if len(byCat[cat]) > 0 {
			groups = append(groups, Group{Category: cat, Items: byCat[cat]})
		}
	}
	return groups
}

func greeting(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// topCategories names the three fullest categories, e.g. "Produce (4)".
func topCategories(items []store.Item) string {
	counts := map[classify.Category]int{}
	for _, it := range items {
		counts[it.Category]++
	}

	type cc struct {
		cat   classify.Category
		count int
	}
	var sorted []cc
	for cat, count := range counts {
		sorted = append(sorted, cc{cat, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].cat < sorted[j].cat
	})

	limit := 3
	if len(sorted) < limit {
		limit = len(sorted)
	}

	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = fmt.Sprintf("%s (%d)", sorted[i].cat.DisplayName(), sorted[i].count)
	}
	return strings.Join(parts, ", ")
}
