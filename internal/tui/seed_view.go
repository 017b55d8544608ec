package tui

import (
	"fmt"
	"strings"

	"github.com/matheuskafuri/larder/internal/assets"
)

// renderSeedView lists every key being warmed with its current state.
func renderSeedView(keys []string, entries map[string]assets.Entry, spin string, width int) string {
	var b strings.Builder
	ready, failed := 0, 0
	for _, k := range keys {
		e, ok := entries[k]
		if !ok {
			e = assets.Entry{Key: k}
		}

		var mark string
		switch e.State {
		case assets.Ready:
			ready++
			mark = readyStyle.Render("✓")
		case assets.Failed:
			failed++
			mark = failedStyle.Render("✗")
		case assets.Loading:
			mark = spin
		default:
			mark = itemCategoryStyle.Render("·")
		}

		line := fmt.Sprintf(" %s %s", mark, truncateStr(k, width-6))
		if e.State == assets.Failed {
			line += " " + failedStyle.Render("("+e.ErrKind.String()+")")
		}
		if e.State == assets.Ready && e.Source == assets.SourceStore {
			line += " " + itemCategoryStyle.Render("(cached)")
		}
		b.WriteString(line + "\n")
	}

	header := headerStyle.Render(fmt.Sprintf("Seeding assets  %d/%d ready", ready, len(keys)))
	if failed > 0 {
		header += "  " + failedStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	return header + "\n\n" + b.String()
}
