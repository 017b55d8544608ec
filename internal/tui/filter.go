package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/larder/internal/expiry"
)

// filterBar selects one freshness bucket, or all of them.
type filterBar struct {
	options []expiry.Category
	cursor  int // 0 is "All"
}

func newFilterBar() filterBar {
	return filterBar{options: expiry.AllCategories()}
}

func (f *filterBar) next() {
	f.cursor = (f.cursor + 1) % (len(f.options) + 1)
}

func (f *filterBar) prev() {
	f.cursor = (f.cursor + len(f.options)) % (len(f.options) + 1)
}

func (f *filterBar) selectIndex(i int) {
	if i >= 0 && i <= len(f.options) {
		f.cursor = i
	}
}

// active returns the selected bucket, empty for all.
func (f *filterBar) active() expiry.Category {
	if f.cursor == 0 {
		return ""
	}
	return f.options[f.cursor-1]
}

func (f *filterBar) activeLabel() string {
	if c := f.active(); c != "" {
		return string(c)
	}
	return "All"
}

func (f *filterBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")

	labels := append([]string{"All"}, make([]string, len(f.options))...)
	for i, c := range f.options {
		labels[i+1] = string(c)
	}

	var row string
	for i, label := range labels {
		style := tabInactiveStyle
		if i == f.cursor {
			style = tabActiveStyle
		}
		part := style.Render(label)
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
