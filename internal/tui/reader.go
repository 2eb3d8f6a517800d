package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mnery/newsvault/internal/store"
)

func renderReader(article *store.Article, width, height, scroll int) string {
	if article == nil {
		return centerText("Select an article", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := readerTitleStyle.Width(contentWidth).Render(article.Title)
	source := readerSourceStyle.Render(
		fmt.Sprintf("%s · %s", article.Source, article.PublishedAt.Format("Jan 2, 2006")),
	)

	// Prefer the extracted full text so articles read fully offline;
	// fall back to the feed description.
	text := article.FullContent
	if text == "" {
		text = article.Description
	}
	if text == "" {
		text = "(No content available)"
	}

	var parts []string
	for _, para := range strings.Split(text, "\n\n") {
		parts = append(parts, wrapText(para, contentWidth))
	}
	body := readerBodyStyle.Width(contentWidth).Render(strings.Join(parts, "\n\n"))
	link := readerLinkStyle.Width(contentWidth).Render("Read online: " + article.URL)

	content := lipgloss.JoinVertical(lipgloss.Left, title, source, "", body, "", link)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
