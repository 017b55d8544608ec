package store

import (
	"time"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/expiry"
)

// Item is one tracked grocery item. Status is a projection of ExpiryDate
// and is refreshed every time the item is read.
type Item struct {
	ID         string
	Name       string
	Category   classify.Category
	ExpiryDate time.Time
	Status     expiry.Category
	ImageKey   string
	CreatedAt  time.Time
}

type ListOpts struct {
	Status   expiry.Category
	Category classify.Category
	Search   string
}

// AssetStats summarizes the persisted asset table.
type AssetStats struct {
	Count int
	Bytes int64
}
