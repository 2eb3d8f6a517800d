// Package source fetches raw news items from remote origins: a JSON content
// API and optional RSS feeds. Its output is shaped into store.Article records
// by Transform before anything touches disk.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/mnery/newsvault/internal/store"
)

// Item is one raw article as delivered by a remote origin.
type Item struct {
	Title       string
	Body        string
	URL         string
	Image       string
	PublishedAt time.Time
	Source      string
}

// Source is any remote origin producing raw items.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// Transform shapes raw items into article records for one batch: very short
// titles are dropped, missing fields get defaults, and the description is cut
// from the body when the origin did not send one.
func Transform(items []Item, batchID string) []store.Article {
	articles := make([]store.Article, 0, len(items))
	for _, it := range items {
		if len([]rune(it.Title)) <= 5 || it.URL == "" {
			continue
		}

		desc := "No description"
		content := "No content available"
		if it.Body != "" {
			desc = truncate(it.Body, 200) + "..."
			content = it.Body
		}

		src := it.Source
		if src == "" {
			src = "Unknown"
		}
		published := it.PublishedAt
		if published.IsZero() {
			published = time.Now()
		}

		articles = append(articles, store.Article{
			URL:         it.URL,
			Title:       it.Title,
			Description: desc,
			Content:     content,
			FullContent: it.Body, // some origins deliver the complete body up front
			Image:       it.Image,
			PublishedAt: published,
			Source:      src,
			BatchID:     batchID,
		})
	}
	return articles
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
