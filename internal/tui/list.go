package tui

import (
	"strings"
	"time"

	"github.com/matheuskafuri/larder/internal/expiry"
	"github.com/matheuskafuri/larder/internal/store"
)

// progressBar renders Progress as a fixed-width gauge.
func progressBar(p float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(p*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderListItem(it store.Item, now time.Time, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(it.Name, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(it.Name, width-4))
	}

	st := expiry.Classify(it.ExpiryDate, now)
	meta := "  " + freshnessStyle(st.Category).Render(progressBar(st.Progress, 10)+" "+expiry.Label(st)) +
		" " + itemCategoryStyle.Render("· "+it.Category.DisplayName())

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(items []store.Item, now time.Time, cursor int, height int, width int) string {
	if len(items) == 0 {
		return lipglossCenter("Nothing in the larder", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(items[i], now, i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
