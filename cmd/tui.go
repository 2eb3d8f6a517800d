package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mnery/newsvault/internal/config"
	"github.com/mnery/newsvault/internal/enrich"
	"github.com/mnery/newsvault/internal/relay"
	"github.com/mnery/newsvault/internal/source"
	"github.com/mnery/newsvault/internal/store"
	"github.com/mnery/newsvault/internal/syncer"
	"github.com/mnery/newsvault/internal/tui"
	"github.com/spf13/cobra"
)

var flagSyncFirst bool

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(config.StorePath())
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	s := buildSyncer(cfg, db)

	if flagSyncFirst {
		fmt.Println("Syncing...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		report, err := s.Refresh(ctx)
		cancel()
		if err != nil {
			fmt.Printf("  [warn] %v\n", err)
		} else if report != nil {
			fmt.Printf("  %d articles fetched\n", report.Fetched)
		}
	}

	return tui.Run(tui.RunOpts{DB: db, Syncer: s})
}

// buildSyncer assembles the sync stack from config: the content API plus
// any enabled feeds, the relay-backed enrichment pipeline, and the
// batch retention ceiling.
func buildSyncer(cfg *config.Config, db *store.Store) *syncer.Syncer {
	logger := newLogger(cfg.LogLevel)
	httpClient := &http.Client{}

	var sources []source.Source
	if cfg.API.Endpoint != "" {
		sources = append(sources, source.NewAPISource(
			httpClient,
			cfg.API.Endpoint,
			cfg.APIKey(),
			cfg.API.Language,
			cfg.API.ArticleCount,
			cfg.API.SortBy,
		))
	}
	for _, f := range cfg.EnabledFeeds() {
		sources = append(sources, source.NewRSSSource(f.Name, f.URL))
	}

	rc := relay.NewClient(httpClient, cfg.RelayURL)
	pipeline := enrich.New(db, rc, httpClient, logger)

	return syncer.New(db, sources, pipeline, cfg.Retention(), logger)
}
