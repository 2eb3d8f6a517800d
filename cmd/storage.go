package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mnery/newsvault/internal/batch"
	"github.com/mnery/newsvault/internal/config"
	"github.com/mnery/newsvault/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagPruneKeep int
	flagClearYes  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old sync batches from the local store",
	Long: `Delete articles from batches beyond the retention ceiling and reclaim disk space.

Uses the retention value from config (default: 10 batches) unless overridden with --keep.`,
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

		keep := cfg.Retention()
		if flagPruneKeep > 0 {
			keep = flagPruneKeep
		}

		deleted, err := batch.Prune(db, keep, newLogger(cfg.LogLevel))
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d article(s); keeping the %d newest batches.\n", deleted, keep)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.StorePath()
		db, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Store: %s\n", dbPath)
		fmt.Printf("Articles: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached articles and the reading queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagClearYes && !confirm("Delete all cached articles and the reading queue?") {
			fmt.Println("Aborted.")
			return nil
		}

		db, err := store.Open(config.StorePath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()

		if err := db.ClearArticles(); err != nil {
			return fmt.Errorf("clearing articles: %w", err)
		}
		if err := db.ClearQueue(); err != nil {
			return fmt.Errorf("clearing queue: %w", err)
		}
		fmt.Println("Store cleared.")
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&flagPruneKeep, "keep", 0, "override the number of batches to keep")
	clearCmd.Flags().BoolVarP(&flagClearYes, "yes", "y", false, "skip confirmation")
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
