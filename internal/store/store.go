package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the durable on-disk home of articles, the reading queue and
// process-wide metadata. All mutation goes through it; a failed Open is
// fatal to the application, individual operation failures are not.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	// One writer connection, so concurrent enrichment writes serialize.
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			url          TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL DEFAULT '',
			full_content TEXT NOT NULL DEFAULT '',
			image        TEXT NOT NULL DEFAULT '',
			cached_image TEXT NOT NULL DEFAULT '',
			published_at DATETIME NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			batch_id     TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_articles_batch ON articles(batch_id);
		CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);

		CREATE TABLE IF NOT EXISTS queue (
			url          TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL DEFAULT '',
			full_content TEXT NOT NULL DEFAULT '',
			image        TEXT NOT NULL DEFAULT '',
			cached_image TEXT NOT NULL DEFAULT '',
			published_at DATETIME NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			batch_id     TEXT NOT NULL DEFAULT '',
			added_at     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_queue_added ON queue(added_at);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

const articleColumns = "url, title, description, content, full_content, image, cached_image, published_at, source, batch_id"

// UpsertArticles writes a batch of articles in one transaction. An existing
// record with the same URL is fully replaced, not merged; readers see either
// the pre- or post-state of the whole batch.
func (s *Store) UpsertArticles(articles []Article) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			full_content = excluded.full_content,
			image = excluded.image,
			cached_image = excluded.cached_image,
			published_at = excluded.published_at,
			source = excluded.source,
			batch_id = excluded.batch_id
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range articles {
		_, err := stmt.Exec(a.URL, a.Title, a.Description, a.Content, a.FullContent,
			a.Image, a.CachedImage, a.PublishedAt, a.Source, a.BatchID)
		if err != nil {
			return fmt.Errorf("upserting article %s: %w", a.URL, err)
		}
	}

	return tx.Commit()
}

// SetCachedImage patches only the cached_image field of one article. No-op
// if the article is gone.
func (s *Store) SetCachedImage(url, data string) error {
	_, err := s.writeDB.Exec("UPDATE articles SET cached_image = ? WHERE url = ?", data, url)
	if err != nil {
		return fmt.Errorf("caching image for %s: %w", url, err)
	}
	return nil
}

// SetFullContent patches only the full_content field of one article.
func (s *Store) SetFullContent(url, text string) error {
	_, err := s.writeDB.Exec("UPDATE articles SET full_content = ? WHERE url = ?", text, url)
	if err != nil {
		return fmt.Errorf("caching full content for %s: %w", url, err)
	}
	return nil
}

func (s *Store) GetArticles(opts QueryOpts) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles"
	var args []any

	if opts.Search != "" {
		query += " WHERE (title LIKE ? OR description LIKE ?)"
		term := "%" + opts.Search + "%"
		args = append(args, term, term)
	}
	query += " ORDER BY published_at DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetAllArticles returns every stored article, newest first.
func (s *Store) GetAllArticles() ([]Article, error) {
	return s.GetArticles(QueryOpts{})
}

// GetByBatch returns all articles stamped with the given batch id.
func (s *Store) GetByBatch(batchID string) ([]Article, error) {
	rows, err := s.readDB.Query(
		"SELECT "+articleColumns+" FROM articles WHERE batch_id = ?", batchID)
	if err != nil {
		return nil, fmt.Errorf("querying batch %s: %w", batchID, err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.URL, &a.Title, &a.Description, &a.Content, &a.FullContent,
			&a.Image, &a.CachedImage, &a.PublishedAt, &a.Source, &a.BatchID); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// DeleteArticle removes one article; removing a missing URL is not an error.
func (s *Store) DeleteArticle(url string) error {
	_, err := s.writeDB.Exec("DELETE FROM articles WHERE url = ?", url)
	if err != nil {
		return fmt.Errorf("deleting article %s: %w", url, err)
	}
	return nil
}

func (s *Store) ClearArticles() error {
	_, err := s.writeDB.Exec("DELETE FROM articles")
	if err != nil {
		return fmt.Errorf("clearing articles: %w", err)
	}
	return nil
}

// AddToQueue stores a snapshot of the article in the reading queue, stamped
// with the insertion time.
func (s *Store) AddToQueue(a Article) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO queue (`+articleColumns+`, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET added_at = excluded.added_at
	`, a.URL, a.Title, a.Description, a.Content, a.FullContent,
		a.Image, a.CachedImage, a.PublishedAt, a.Source, a.BatchID, time.Now())
	if err != nil {
		return fmt.Errorf("queueing %s: %w", a.URL, err)
	}
	return nil
}

func (s *Store) RemoveFromQueue(url string) error {
	_, err := s.writeDB.Exec("DELETE FROM queue WHERE url = ?", url)
	if err != nil {
		return fmt.Errorf("removing %s from queue: %w", url, err)
	}
	return nil
}

func (s *Store) IsInQueue(url string) (bool, error) {
	var n int
	err := s.readDB.QueryRow("SELECT COUNT(*) FROM queue WHERE url = ?", url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking queue for %s: %w", url, err)
	}
	return n > 0, nil
}

func (s *Store) GetQueue() ([]QueueEntry, error) {
	rows, err := s.readDB.Query(
		"SELECT " + articleColumns + ", added_at FROM queue ORDER BY added_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying queue: %w", err)
	}
	defer rows.Close()

	var entries []QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.URL, &e.Title, &e.Description, &e.Content, &e.FullContent,
			&e.Image, &e.CachedImage, &e.PublishedAt, &e.Source, &e.BatchID, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ClearQueue() error {
	_, err := s.writeDB.Exec("DELETE FROM queue")
	if err != nil {
		return fmt.Errorf("clearing queue: %w", err)
	}
	return nil
}

// GetMeta returns the stored value for key, or "" when the key was never set.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta writes a scalar; last write wins.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing meta %s: %w", key, err)
	}
	return nil
}

// Stats reports the article count and the database file size.
func (s *Store) Stats(dbPath string) (count int, size int64, err error) {
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting articles: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("statting db: %w", err)
	}
	return count, info.Size(), nil
}
