package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmcdole/gofeed"
)

// RSSSource fetches one RSS/Atom feed into the common item shape.
type RSSSource struct {
	parser *gofeed.Parser
	name   string
	url    string
}

func NewRSSSource(name, url string) *RSSSource {
	return &RSSSource{parser: gofeed.NewParser(), name: name, url: url}
}

func (s *RSSSource) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", s.name, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := Item{
			Title:  it.Title,
			Body:   it.Content,
			URL:    it.Link,
			Source: s.name,
		}
		if item.Body == "" {
			item.Body = it.Description
		}
		if it.PublishedParsed != nil {
			item.PublishedAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			item.PublishedAt = *it.UpdatedParsed
		}
		if it.Image != nil {
			item.Image = it.Image.URL
		}
		items = append(items, item)
	}
	return items, nil
}

// FetchAll queries every source concurrently and merges the results.
// Per-source failures are collected, not fatal.
type FetchResult struct {
	Items  []Item
	Errors []error
}

func FetchAll(ctx context.Context, sources []Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	for _, src := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			items, err := s.Fetch(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err)
				return
			}
			result.Items = append(result.Items, items...)
		}(src)
	}

	wg.Wait()
	return result
}
