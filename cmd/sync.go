package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mnery/newsvault/internal/config"
	"github.com/mnery/newsvault/internal/store"
	"github.com/mnery/newsvault/internal/syncer"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the latest articles and cache them for offline reading",
	Long:  "Pull a fresh batch from the configured sources, then download images and extract full article text so everything is readable offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := s.Sync(ctx)
		if errors.Is(err, syncer.ErrOffline) {
			fmt.Println("Offline — cached articles remain available.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("syncing: %w", err)
		}

		fmt.Printf("Fetched %d articles (batch %s).\n", report.Fetched, report.BatchID)

		fmt.Println("Caching images and article text...")
		result, err := report.Enrichment.Wait()
		if err != nil {
			return fmt.Errorf("enriching: %w", err)
		}
		fmt.Printf("Cached %d images, %d full articles.\n", result.ImagesCached, result.ArticlesCached)
		return nil
	},
}
