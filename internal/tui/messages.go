package tui

import (
	"github.com/matheuskafuri/larder/internal/assets"
	"github.com/matheuskafuri/larder/internal/store"
)

type itemsLoadedMsg struct {
	items []store.Item
}

type loadErrMsg struct {
	err error
}

// assetMsg carries one cache transition into the program loop.
type assetMsg struct {
	entry assets.Entry
}

type seedDoneMsg struct {
	entries []assets.Entry
}
