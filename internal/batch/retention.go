package batch

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/mnery/newsvault/internal/store"
)

// DefaultKeep is the retention ceiling: the number of most recent batches
// kept in the store.
const DefaultKeep = 10

// Prune deletes every article belonging to a batch older than the newest
// `keep` batches. Deletion is per record; a failed delete is logged and
// skipped, leaving the store valid but incompletely pruned. Returns the
// number of articles actually deleted.
func Prune(s *store.Store, keep int, logger *slog.Logger) (int, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}

	articles, err := s.GetAllArticles()
	if err != nil {
		return 0, err
	}

	byBatch := make(map[string][]store.Article)
	for _, a := range articles {
		byBatch[a.BatchID] = append(byBatch[a.BatchID], a)
	}
	if len(byBatch) <= keep {
		return 0, nil
	}

	ids := make([]string, 0, len(byBatch))
	for id := range byBatch {
		ids = append(ids, id)
	}
	// Batch ids are timestamp-derived, compare numerically, newest first.
	sort.Slice(ids, func(i, j int) bool {
		return batchNum(ids[i]) > batchNum(ids[j])
	})

	deleted := 0
	for _, id := range ids[keep:] {
		for _, a := range byBatch[id] {
			if err := s.DeleteArticle(a.URL); err != nil {
				logger.Warn("retention delete failed", "url", a.URL, "batch", id, "error", err)
				continue
			}
			deleted++
		}
	}

	logger.Debug("retention pruned old batches", "batches", len(ids)-keep, "articles", deleted)
	return deleted, nil
}

func batchNum(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
