package store

import "time"

// Metadata keys.
const (
	MetaLatestBatch = "latestBatchId"
	MetaLastSync    = "lastSync"
)

// Article is one fetched news item, keyed by its canonical URL. Two fetches
// of the same URL are the same article.
type Article struct {
	URL         string
	Title       string
	Description string
	Content     string
	FullContent string // complete body, extracted or API-provided; empty until enriched
	Image       string // remote image URL
	CachedImage string // base64 data URL persisted for offline use
	PublishedAt time.Time
	Source      string
	BatchID     string // id of the sync that last wrote this record
}

// QueueEntry is a user-queued article. It carries a snapshot of the article
// so it still renders after the article itself has been pruned.
type QueueEntry struct {
	Article
	AddedAt time.Time
}

// QueryOpts narrows GetArticles results.
type QueryOpts struct {
	Search string
	Limit  int
}
