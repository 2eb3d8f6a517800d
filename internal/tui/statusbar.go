package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mnery/newsvault/internal/syncer"
)

func renderStatusBar(articleCount int, active tab, status syncer.Status, lastSync string, width int, searching bool) string {
	statusAccent := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	statusOK := lipgloss.NewStyle().Foreground(colorGreen).Bold(true)

	left := fmt.Sprintf(" %d articles", articleCount)
	if active == tabQueue {
		left = fmt.Sprintf(" %d queued", articleCount)
	}

	switch status {
	case syncer.StatusSyncing:
		left += " · " + statusAccent.Render("syncing")
	case syncer.StatusOnline:
		left += " · " + statusOK.Render("online")
	case syncer.StatusOffline:
		left += " · " + statusAccent.Render("offline")
	}
	if lastSync != "" {
		left += " · synced " + lastSync
	}

	right := " s sync  a queue  / search  ? help  q quit "
	if searching {
		right = " esc cancel  enter search "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
