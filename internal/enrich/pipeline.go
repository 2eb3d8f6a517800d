// Package enrich fills in the offline payload of freshly synced articles:
// a locally cached image and the full extracted body text. Everything here
// is best-effort; one bad source never degrades the rest of the batch.
package enrich

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mnery/newsvault/internal/extract"
	"github.com/mnery/newsvault/internal/relay"
	"github.com/mnery/newsvault/internal/store"
)

// Per-attempt budgets, so a hanging source never blocks the batch.
const (
	ImageTimeout   = 15 * time.Second
	ExtractTimeout = 30 * time.Second
)

// Pipeline runs the image and full-text sub-pipelines over a batch.
type Pipeline struct {
	store  *store.Store
	relay  *relay.Client
	client *http.Client
	logger *slog.Logger

	imageTimeout   time.Duration
	extractTimeout time.Duration
}

// Result reports what is actually persisted after the pipeline settles. The
// counts are re-read from the store rather than accumulated in flight, since
// individual writes may have failed silently.
type Result struct {
	ImagesCached   int
	ArticlesCached int
}

func New(s *store.Store, rc *relay.Client, httpClient *http.Client, logger *slog.Logger) *Pipeline {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Pipeline{
		store:          s,
		relay:          rc,
		client:         httpClient,
		logger:         logger,
		imageTimeout:   ImageTimeout,
		extractTimeout: ExtractTimeout,
	}
}

// Run enriches every article concurrently and waits for all attempts to
// settle, success or failure, before counting what made it to disk.
func (p *Pipeline) Run(ctx context.Context, articles []store.Article) (Result, error) {
	var wg sync.WaitGroup

	for _, a := range articles {
		if a.Image != "" && a.CachedImage == "" {
			wg.Add(1)
			go func(a store.Article) {
				defer wg.Done()
				p.cacheImage(ctx, a)
			}(a)
		}
		if a.FullContent == "" {
			wg.Add(1)
			go func(a store.Article) {
				defer wg.Done()
				p.cacheFullText(ctx, a)
			}(a)
		}
	}

	wg.Wait()

	if err := p.store.SetMeta(store.MetaLastSync, time.Now().Format(time.RFC3339)); err != nil {
		p.logger.Warn("recording last sync time failed", "error", err)
	}

	return p.verify()
}

func (p *Pipeline) cacheImage(ctx context.Context, a store.Article) {
	dataURL, err := p.fetchImage(ctx, a.Image)
	if err != nil {
		p.logger.Debug("image not cached", "url", a.URL, "error", err)
		return
	}
	if err := p.store.SetCachedImage(a.URL, dataURL); err != nil {
		p.logger.Warn("persisting cached image failed", "url", a.URL, "error", err)
	}
}

func (p *Pipeline) cacheFullText(ctx context.Context, a store.Article) {
	ctx, cancel := context.WithTimeout(ctx, p.extractTimeout)
	defer cancel()

	page, _, err := p.relay.Get(ctx, a.URL)
	if err != nil {
		p.logger.Debug("page fetch failed", "url", a.URL, "error", err)
		return
	}

	text, err := extract.Extract(string(page))
	if err != nil {
		p.logger.Debug("extraction skipped", "url", a.URL, "reason", err)
		return
	}

	if err := p.store.SetFullContent(a.URL, text); err != nil {
		p.logger.Warn("persisting full content failed", "url", a.URL, "error", err)
	}
}

// verify re-derives the aggregate counts from persisted state.
func (p *Pipeline) verify() (Result, error) {
	articles, err := p.store.GetAllArticles()
	if err != nil {
		return Result{}, err
	}
	var r Result
	for _, a := range articles {
		if a.CachedImage != "" {
			r.ImagesCached++
		}
		if len(a.FullContent) > extract.MinContentLen {
			r.ArticlesCached++
		}
	}
	return r, nil
}
