package cmd

import (
	"fmt"

	"github.com/mnery/newsvault/internal/config"
	"github.com/mnery/newsvault/internal/store"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue [url]",
	Short: "Show the reading queue, or toggle an article in and out of it",
	Long: `With no arguments, list the reading queue. With a URL, add that article
to the queue, or remove it if it is already queued.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(config.StorePath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()

		if len(args) == 0 {
			return listQueue(db)
		}
		return toggleQueue(db, args[0])
	},
}

func listQueue(db *store.Store) error {
	entries, err := db.GetQueue()
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Reading queue is empty.")
		return nil
	}
	for _, e := range entries {
		saved := ""
		if e.FullContent != "" {
			saved = " [saved]"
		}
		fmt.Printf("%s%s\n    %s\n", e.Title, saved, e.URL)
	}
	return nil
}

func toggleQueue(db *store.Store, url string) error {
	in, err := db.IsInQueue(url)
	if err != nil {
		return fmt.Errorf("checking queue: %w", err)
	}
	if in {
		if err := db.RemoveFromQueue(url); err != nil {
			return fmt.Errorf("removing from queue: %w", err)
		}
		fmt.Println("Removed from queue.")
		return nil
	}

	articles, err := db.GetAllArticles()
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}
	for _, a := range articles {
		if a.URL == url {
			if err := db.AddToQueue(a); err != nil {
				return fmt.Errorf("adding to queue: %w", err)
			}
			fmt.Println("Added to queue.")
			return nil
		}
	}
	return fmt.Errorf("no cached article with URL %q", url)
}
