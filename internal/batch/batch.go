// Package batch tracks sync batches: id generation, the fresh/stale
// predicate, and the retention policy that bounds storage growth.
package batch

import (
	"strconv"
	"sync"
	"time"

	"github.com/mnery/newsvault/internal/store"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns a monotonically increasing batch identifier derived from the
// current time in milliseconds. Two syncs within the same millisecond still
// get distinct, ordered ids.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}

// Fresh reports whether the article belongs to the most recent batch. It is
// a derived predicate: nothing is rewritten when a newer batch completes,
// every older article simply stops being fresh.
func Fresh(a store.Article, latestID string) bool {
	return latestID != "" && a.BatchID == latestID
}
