package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/matheuskafuri/larder/internal/assets"
	"github.com/matheuskafuri/larder/internal/expiry"
	"github.com/matheuskafuri/larder/internal/store"
)

func renderPreview(it *store.Item, icon assets.Entry, now time.Time, width, height int) string {
	if it == nil {
		return lipglossCenter("Select an item", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	st := expiry.Classify(it.ExpiryDate, now)
	title := previewTitleStyle.Width(contentWidth).Render(it.Name)
	status := freshnessStyle(st.Category).Render(fmt.Sprintf("%s · %s", st.Category, expiry.Label(st)))
	gauge := freshnessStyle(st.Category).Render(progressBar(st.Progress, contentWidth/2))

	body := previewBodyStyle.Width(contentWidth).Render(strings.Join([]string{
		"Category  " + it.Category.DisplayName(),
		"Expires   " + it.ExpiryDate.Format("Mon Jan 2, 2006"),
		"Added     " + it.CreatedAt.Local().Format("Jan 2 15:04"),
	}, "\n"))

	content := lipgloss.JoinVertical(lipgloss.Left, title, status, gauge, "", body, "", renderIconState(icon))

	lines := strings.Split(content, "\n")
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func renderIconState(e assets.Entry) string {
	switch e.State {
	case assets.Ready:
		return readyStyle.Render(fmt.Sprintf("Icon      ready (%s, %s)", humanize.IBytes(uint64(len(e.Value))), e.Source))
	case assets.Loading:
		return spinnerStyle.Render("Icon      generating...")
	case assets.Failed:
		return failedStyle.Render(fmt.Sprintf("Icon      unavailable (%s)", e.ErrKind))
	default:
		return itemCategoryStyle.Render("Icon      not requested")
	}
}
