package tui

import "github.com/charmbracelet/lipgloss"

type tab int

const (
	tabAll tab = iota
	tabQueue
)

func renderTabs(active tab, width int) string {
	all := tabInactiveStyle.Render("All")
	queue := tabInactiveStyle.Render("Reading Queue")
	switch active {
	case tabAll:
		all = tabActiveStyle.Render("All")
	case tabQueue:
		queue = tabActiveStyle.Render("Reading Queue")
	}

	bar := lipgloss.NewStyle().
		Background(colorTabBg).
		Width(width).
		PaddingLeft(1)
	return bar.Render(all + " " + queue)
}
