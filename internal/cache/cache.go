// Package cache persists invoke-table match results across compiler runs
// (spec.md 4.8 "Caching": analysis results are memoized; an sqlite-backed
// cache extends that memoization past one process's lifetime). Entries are
// keyed by a caller-built string plus a source digest; cmd/clayc's resolver
// skips matchInvoke only for a cached rejection, never for a cached success.
//
// Grounded on the teacher's go.mod modernc.org/sqlite dependency and on
// termfx-morfx's internal/db package, whose execWithRetry/queryRowWithRetry
// "database is locked" backoff this package's Get/Put reuse verbatim — a
// single compilation process never contends with itself (spec.md 5), but a
// build daemon serving several clayc invocations against one cache file can.
package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a handle on one sqlite-backed match-result cache file.
type Store struct {
	db *sql.DB
}

// Open creates (if absent) and opens the cache database at path, per
// config.Project.CacheDB.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS match_results (
	key         TEXT PRIMARY KEY,
	source_hash TEXT NOT NULL,
	kind        TEXT NOT NULL,
	detail      TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Result is one cached matchInvoke outcome, keyed by the string cmd/clayc's
// resolver.cacheKey builds (overload source location plus argument types).
type Result struct {
	Kind   string // "matched", or the invoke.Result's String() for a rejection
	Detail string // the invoke.Result's String(), reused as the rejection reason
}

// Get returns the cached result for key if sourceHash (a digest of every
// source file that could affect it) still matches what was cached, so a
// changed source invalidates the entry instead of returning a stale result.
func (s *Store) Get(key, sourceHash string) (Result, bool, error) {
	var res Result
	var gotHash string
	err := withRetry(func() error {
		row := s.db.QueryRow(`SELECT source_hash, kind, detail FROM match_results WHERE key = ?`, key)
		return row.Scan(&gotHash, &res.Kind, &res.Detail)
	})
	if err == sql.ErrNoRows {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	if gotHash != sourceHash {
		return Result{}, false, nil
	}
	return res, true, nil
}

// Put stores or replaces the cached result for key.
func (s *Store) Put(key, sourceHash string, res Result) error {
	return withRetry(func() error {
		_, err := s.db.Exec(
			`INSERT INTO match_results (key, source_hash, kind, detail, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET source_hash = excluded.source_hash, kind = excluded.kind, detail = excluded.detail, updated_at = excluded.updated_at`,
			key, sourceHash, res.Kind, res.Detail, nowStamp())
		return err
	})
}

// nowStamp is overridable by tests; production calls time.Now directly.
var nowStamp = func() string { return time.Now().UTC().Format(time.RFC3339) }

func withRetry(fn func() error) error {
	const maxRetries = 5
	var err error
	for range maxRetries {
		err = fn()
		if err == nil || err == sql.ErrNoRows {
			return err
		}
		if strings.Contains(err.Error(), "locked") || strings.Contains(err.Error(), "busy") {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		return err
	}
	return fmt.Errorf("cache: database is locked after %d retries: %w", maxRetries, err)
}
