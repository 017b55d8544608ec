package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(itemCount int, filterLabel string, pending int, width int, searching bool) string {
	left := fmt.Sprintf(" %d items", itemCount)
	if filterLabel != "All" {
		left += " · " + filterLabel
	}
	if pending > 0 {
		left += fmt.Sprintf(" · %d icons loading", pending)
	}

	right := " / search  f filter  s seed  q quit "
	if searching {
		right = " esc cancel  enter search "
	}

	return statusBarStyle.Width(width).Render(spread(left, right, width))
}

func renderBottomBar(hints string, width int) string {
	return statusBarStyle.Width(width).Render(spread("", " "+hints+" ", width))
}

func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + fmt.Sprintf("%*s", gap, "") + right
}
