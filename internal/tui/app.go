package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/larder/internal/assets"
	"github.com/matheuskafuri/larder/internal/store"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeSeed
)

// ItemLister is the inventory query the browser needs.
type ItemLister interface {
	ListItems(ctx context.Context, opts store.ListOpts) ([]store.Item, error)
}

type App struct {
	db    ItemLister
	cache *assets.Cache
	now   func() time.Time

	items  []store.Item
	cursor int
	mode   mode

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model
	filterBar   filterBar

	// Asset state mirrored from cache transitions
	entries  map[string]assets.Entry
	seedKeys []string
	seeding  bool
	cancel   context.CancelFunc

	err error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	DB    ItemLister
	Cache *assets.Cache
	// SeedKeys, when set, opens the seeding view and warms these keys.
	SeedKeys []string
	Now      func() time.Time
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search items..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{
		db:          opts.DB,
		cache:       opts.Cache,
		now:         opts.Now,
		searchInput: ti,
		spinner:     sp,
		filterBar:   newFilterBar(),
		entries:     make(map[string]assets.Entry),
	}
	if len(opts.SeedKeys) > 0 {
		a.mode = modeSeed
		a.seedKeys = opts.SeedKeys
	}
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick}
	if a.db != nil {
		cmds = append(cmds, a.loadItemsCmd())
	}
	if a.mode == modeSeed {
		cmds = append(cmds, a.startSeed())
	}
	return tea.Batch(cmds...)
}

// loadItemsCmd captures current query state into the closure to avoid races.
func (a *App) loadItemsCmd() tea.Cmd {
	opts := store.ListOpts{
		Status: a.filterBar.active(),
		Search: a.searchInput.Value(),
	}
	db := a.db
	return func() tea.Msg {
		items, err := db.ListItems(context.Background(), opts)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return itemsLoadedMsg{items: items}
	}
}

func (a *App) startSeed() tea.Cmd {
	if a.cache == nil || a.seeding {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.seeding = true
	c := a.cache
	keys := a.seedKeys
	return func() tea.Msg {
		return seedDoneMsg{entries: c.Seed(ctx, keys, assets.DefaultPrompts)}
	}
}

// prefetchSelected asks the cache for the icon of the item under the cursor.
func (a *App) prefetchSelected() tea.Cmd {
	if a.cache == nil || a.cursor >= len(a.items) {
		return nil
	}
	key := a.items[a.cursor].ImageKey
	if key == "" {
		return nil
	}
	if e := a.cache.Get(key); e.State != assets.Idle {
		a.entries[key] = e
		return nil
	}
	a.cache.Prefetch(key, assets.DefaultPrompts)
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case itemsLoadedMsg:
		a.items = msg.items
		if a.cursor >= len(a.items) {
			a.cursor = max(0, len(a.items)-1)
		}
		return a, a.prefetchSelected()

	case loadErrMsg:
		a.err = msg.err
		return a, nil

	case assetMsg:
		a.entries[msg.entry.Key] = msg.entry
		return a, nil

	case seedDoneMsg:
		a.seeding = false
		for _, e := range msg.entries {
			a.entries[e.Key] = e
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeSeed:
		return a.handleSeedKey(msg)
	}

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "j", "down":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
		return a, a.prefetchSelected()
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, a.prefetchSelected()
	case "/":
		a.mode = modeSearch
		return a, a.searchInput.Focus()
	case "f", "right", "l":
		a.filterBar.next()
		return a, a.loadItemsCmd()
	case "F", "left", "h":
		a.filterBar.prev()
		return a, a.loadItemsCmd()
	case "0", "1", "2", "3":
		a.filterBar.selectIndex(int(msg.String()[0] - '0'))
		return a, a.loadItemsCmd()
	case "s":
		if a.cache == nil {
			return a, nil
		}
		a.mode = modeSeed
		if len(a.seedKeys) == 0 {
			a.seedKeys = append(assets.OnboardingKeys(), assets.CategoryKeys()...)
		}
		return a, a.startSeed()
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.Reset()
		a.searchInput.Blur()
		return a, a.loadItemsCmd()
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.cursor = 0
		return a, a.loadItemsCmd()
	}
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleSeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, a.quit()
	case "esc", "b":
		if a.db == nil {
			return a, a.quit()
		}
		a.mode = modeNormal
		return a, nil
	}
	return a, nil
}

// quit stops seeding after the key in progress.
func (a *App) quit() tea.Cmd {
	if a.cancel != nil {
		a.cancel()
	}
	return tea.Quit
}

func (a *App) pendingIcons() int {
	n := 0
	for _, e := range a.entries {
		if e.State == assets.Loading {
			n++
		}
	}
	return n
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  larder")
	}

	now := a.now()

	headerLeft := headerStyle.Render("larder")
	headerRight := headerDateStyle.Render(now.Format("Mon Jan 2"))
	header := spread(headerLeft, headerRight, a.width)

	if a.mode == modeSeed {
		hints := "esc back  q quit"
		if !a.seeding {
			hints = "done · " + hints
		}
		body := renderSeedView(a.seedKeys, a.entries, a.spinner.View(), a.width)
		return lipgloss.JoinVertical(lipgloss.Left, header, body, renderBottomBar(hints, a.width))
	}

	filterHeight := 1
	statusHeight := 1
	contentHeight := a.height - 1 - filterHeight - statusHeight - 4 // borders
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := int(float64(a.width) * 0.45)
	previewWidth := a.width - listWidth - 1

	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	listContent := renderList(a.items, now, a.cursor, contentHeight, listWidth-4)
	listPane := listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	if a.mode == modeSearch {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	var selected *store.Item
	var icon assets.Entry
	if len(a.items) > 0 && a.cursor < len(a.items) {
		selected = &a.items[a.cursor]
		icon = a.entries[selected.ImageKey]
	}
	previewContent := renderPreview(selected, icon, now, previewWidth-4, contentHeight)
	previewPane := previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(len(a.items), a.filterBar.activeLabel(), a.pendingIcons(), a.width, a.mode == modeSearch)
	if a.err != nil {
		status = failedStyle.Render(fmt.Sprintf("error: %v", a.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, content, status)
}

// Run starts the program and forwards every cache transition into it.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if opts.Cache != nil {
		unsubscribe := opts.Cache.Subscribe("", func(e assets.Entry) {
			p.Send(assetMsg{entry: e})
		})
		defer unsubscribe()
	}

	_, err := p.Run()
	return err
}
