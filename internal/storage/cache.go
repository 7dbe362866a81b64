package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResultEntry is one cached result item. Payload is the JSON-encoded item;
// Key identifies it within its file.
type ResultEntry struct {
	Key     string
	Line    int
	Payload string
}

// ResultCache holds cached result items partitioned by workspace root, kind
// and file. With a DB attached, writes go through to it and reads are served
// from an LRU front that falls back to the DB on a miss. Without one, every
// partition is kept in memory; nothing is evicted.
type ResultCache struct {
	mu     sync.Mutex
	db     *DB
	mem    *lru.Cache[string, []ResultEntry]
	store  map[string][]ResultEntry
	logger *slog.Logger
}

// NewResultCache creates a cache. size bounds the LRU front of a DB-backed
// cache. db may be nil for a memory-only cache, which ignores size.
func NewResultCache(db *DB, size int, logger *slog.Logger) (*ResultCache, error) {
	if db == nil {
		return &ResultCache{store: make(map[string][]ResultEntry), logger: logger}, nil
	}
	if size <= 0 {
		size = 1
	}
	mem, err := lru.New[string, []ResultEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultCache{db: db, mem: mem, logger: logger}, nil
}

// Persistent reports whether entries survive the process.
func (c *ResultCache) Persistent() bool {
	return c.db != nil
}

// ReplaceFile sets the entries of one file, discarding what was there.
func (c *ResultCache) ReplaceFile(root, kind, file string, entries []ResultEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fk := FileKey(file)
	key := partitionKey(root, kind, fk)
	if c.db == nil {
		c.store[key] = slices.Clone(entries)
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	err := c.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM result_entries WHERE root = ? AND kind = ? AND file_key = ?
		`, root, kind, fk); err != nil {
			return err
		}
		for seq, e := range entries {
			if _, err := tx.Exec(`
				INSERT OR REPLACE INTO result_entries
					(root, kind, file_key, seq, item_key, line, payload_json, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, root, kind, fk, seq, e.Key, e.Line, e.Payload, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store results: %w", err)
	}

	c.mem.Add(key, slices.Clone(entries))
	return nil
}

// File returns the cached entries of one file in stored order. The boolean
// is false when the file has never been cached.
func (c *ResultCache) File(root, kind, file string) ([]ResultEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fk := FileKey(file)
	key := partitionKey(root, kind, fk)
	if c.db == nil {
		entries, ok := c.store[key]
		return slices.Clone(entries), ok, nil
	}
	if entries, ok := c.mem.Get(key); ok {
		return slices.Clone(entries), true, nil
	}

	rows, err := c.db.Query(`
		SELECT item_key, line, payload_json
		FROM result_entries
		WHERE root = ? AND kind = ? AND file_key = ?
		ORDER BY seq
	`, root, kind, fk)
	if err != nil {
		return nil, false, fmt.Errorf("result cache lookup failed: %w", err)
	}
	defer rows.Close()

	var entries []ResultEntry
	for rows.Next() {
		var e ResultEntry
		if err := rows.Scan(&e.Key, &e.Line, &e.Payload); err != nil {
			return nil, false, fmt.Errorf("failed to scan result entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, nil
	}

	c.mem.Add(key, entries)
	return slices.Clone(entries), true, nil
}

// Clear drops every cached entry of kind under root.
func (c *ResultCache) Clear(root, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := partitionKey(root, kind, "")
	if c.db == nil {
		for k := range c.store {
			if strings.HasPrefix(k, prefix) {
				delete(c.store, k)
			}
		}
		return nil
	}
	for _, k := range c.mem.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.mem.Remove(k)
		}
	}
	if _, err := c.db.Exec(`DELETE FROM result_entries WHERE root = ? AND kind = ?`, root, kind); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	c.logger.Debug("Cleared cached results", "root", root, "kind", kind)
	return nil
}

// Len returns the number of partitions held in memory.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return len(c.store)
	}
	return c.mem.Len()
}

// SaveFlags records per-kind staleness flags for root. A memory-only cache
// keeps nothing; the flags live as long as the process that set them.
func (c *ResultCache) SaveFlags(root string, flags map[string]bool) error {
	if c.db == nil || len(flags) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	err := c.db.WithTx(func(tx *sql.Tx) error {
		for kind, stale := range flags {
			if _, err := tx.Exec(`
				INSERT OR REPLACE INTO staleness_flags (root, kind, stale, updated_at)
				VALUES (?, ?, ?, ?)
			`, root, kind, stale, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store staleness flags: %w", err)
	}
	return nil
}

// Flags returns the staleness flags saved for root. Kinds never saved are
// absent.
func (c *ResultCache) Flags(root string) (map[string]bool, error) {
	flags := make(map[string]bool)
	if c.db == nil {
		return flags, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT kind, stale FROM staleness_flags WHERE root = ?`, root)
	if err != nil {
		return nil, fmt.Errorf("staleness flag lookup failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var stale bool
		if err := rows.Scan(&kind, &stale); err != nil {
			return nil, fmt.Errorf("failed to scan staleness flag: %w", err)
		}
		flags[kind] = stale
	}
	return flags, rows.Err()
}

// FileKey is the case-folded, slash-separated form used to match files.
func FileKey(file string) string {
	return strings.ToLower(strings.ReplaceAll(file, `\`, "/"))
}

func partitionKey(root, kind, fileKey string) string {
	return root + "\x00" + kind + "\x00" + fileKey
}
