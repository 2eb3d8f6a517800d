// Package syncer drives one end-to-end sync cycle: prune old batches, fetch
// from the remote sources, persist the new batch, then hand the batch to the
// enrichment pipeline as a tracked background task.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mnery/newsvault/internal/batch"
	"github.com/mnery/newsvault/internal/enrich"
	"github.com/mnery/newsvault/internal/extract"
	"github.com/mnery/newsvault/internal/source"
	"github.com/mnery/newsvault/internal/store"
)

// FetchTimeout bounds the remote fetch step of one sync cycle.
const FetchTimeout = 30 * time.Second

var (
	// ErrOffline means the device has no network path; the sync refused up
	// front and created no state.
	ErrOffline = errors.New("offline: cannot sync")
	// ErrEmptyResult means the remote returned no usable articles.
	ErrEmptyResult = errors.New("remote returned no articles")
)

// Probe reports whether the network is reachable.
type Probe func(ctx context.Context) bool

// Syncer owns all sync state explicitly: current status, the latest batch
// id, and the running enrichment task. Nothing lives in package globals.
type Syncer struct {
	store    *store.Store
	sources  []source.Source
	pipeline *enrich.Pipeline
	keep     int
	logger   *slog.Logger
	probe    Probe

	mu     sync.Mutex
	status Status
}

// Report summarizes a completed fetch step. Enrichment is still running
// when Sync returns; callers await it through the task handle.
type Report struct {
	BatchID         string
	Fetched         int
	WithFullContent int
	Enrichment      *Task
}

// Task tracks a spawned enrichment run so callers and tests can wait for it
// deterministically instead of racing a detached goroutine.
type Task struct {
	done   chan struct{}
	result enrich.Result
	err    error
}

// Wait blocks until the enrichment pipeline has settled.
func (t *Task) Wait() (enrich.Result, error) {
	<-t.done
	return t.result, t.err
}

func New(s *store.Store, sources []source.Source, pipeline *enrich.Pipeline, keep int, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:    s,
		sources:  sources,
		pipeline: pipeline,
		keep:     keep,
		logger:   logger,
		probe:    defaultProbe,
		status:   StatusIdle,
	}
}

// SetProbe replaces the connectivity check, mainly for tests.
func (s *Syncer) SetProbe(p Probe) { s.probe = p }

func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Syncer) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// LatestBatch returns the id of the most recently completed fetch step.
func (s *Syncer) LatestBatch() string {
	id, err := s.store.GetMeta(store.MetaLatestBatch)
	if err != nil {
		s.logger.Warn("reading latest batch id failed", "error", err)
		return ""
	}
	return id
}

// Sync runs one cycle. It refuses immediately when offline, and any failure
// after that sets status offline without touching the latest batch id. On
// success the new batch is persisted and enrichment starts in the
// background; the returned report carries its task handle.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	if !s.probe(ctx) {
		s.setStatus(StatusOffline)
		return nil, ErrOffline
	}
	s.setStatus(StatusSyncing)

	// Make room before the new batch lands. A partial prune is not fatal.
	if _, err := batch.Prune(s.store, s.keep, s.logger); err != nil {
		s.logger.Warn("retention prune failed", "error", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()
	result := source.FetchAll(fetchCtx, s.sources)
	for _, e := range result.Errors {
		s.logger.Warn("source fetch failed", "error", e)
	}

	batchID := batch.NewID()
	articles := source.Transform(result.Items, batchID)
	if len(articles) == 0 {
		s.setStatus(StatusOffline)
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("sync failed: %w", result.Errors[0])
		}
		return nil, ErrEmptyResult
	}

	if err := s.store.UpsertArticles(articles); err != nil {
		s.setStatus(StatusOffline)
		return nil, fmt.Errorf("persisting batch %s: %w", batchID, err)
	}
	if err := s.store.SetMeta(store.MetaLatestBatch, batchID); err != nil {
		s.setStatus(StatusOffline)
		return nil, fmt.Errorf("recording batch %s: %w", batchID, err)
	}
	s.setStatus(StatusOnline)

	withContent := 0
	for _, a := range articles {
		if len(a.FullContent) > extract.MinContentLen {
			withContent++
		}
	}
	s.logger.Info("sync complete", "batch", batchID, "articles", len(articles), "with_content", withContent)

	return &Report{
		BatchID:         batchID,
		Fetched:         len(articles),
		WithFullContent: withContent,
		Enrichment:      s.spawnEnrichment(articles),
	}, nil
}

// spawnEnrichment starts the pipeline for the batch. The task is not bound
// to the sync's context: a later sync does not cancel it, overlapping
// pipelines are tolerated because all their writes are field-scoped.
func (s *Syncer) spawnEnrichment(articles []store.Article) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result, t.err = s.pipeline.Run(context.Background(), articles)
		if t.err != nil {
			s.logger.Warn("enrichment settled with error", "error", t.err)
			return
		}
		s.logger.Info("enrichment settled",
			"images", t.result.ImagesCached, "articles", t.result.ArticlesCached)
	}()
	return t
}

// Refresh syncs when the network is up and otherwise just reports that the
// caller should reload from the local store.
func (s *Syncer) Refresh(ctx context.Context) (*Report, error) {
	if !s.probe(ctx) {
		s.setStatus(StatusOffline)
		return nil, nil
	}
	return s.Sync(ctx)
}

func defaultProbe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://clients3.google.com/generate_204", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
