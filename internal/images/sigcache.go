package images

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"
)

// SignatureCache remembers the source hash of every image that was compressed
// remotely, so unchanged images are not uploaded again. Entries are only ever
// inserted or updated.
type SignatureCache struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSignatureCache opens or creates the cache database at path.
func OpenSignatureCache(path string) (*SignatureCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open signature cache: %w", err)
	}
	c := &SignatureCache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize signature cache: %w", err)
	}
	return c, nil
}

func (c *SignatureCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS signatures (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Signature returns the cache key for image data.
func Signature(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Unchanged reports whether path was last recorded with sig.
func (c *SignatureCache) Unchanged(ctx context.Context, path, sig string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stored string
	err := c.db.QueryRowContext(ctx, "SELECT hash FROM signatures WHERE path = ?", path).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query signature: %w", err)
	}
	return stored == sig, nil
}

// Record upserts the signature of path.
func (c *SignatureCache) Record(ctx context.Context, path, sig string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO signatures (path, hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		path, sig, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record signature: %w", err)
	}
	return nil
}

// Len returns the number of recorded images.
func (c *SignatureCache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM signatures").Scan(&n); err != nil {
		return 0, fmt.Errorf("count signatures: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *SignatureCache) Close() error {
	return c.db.Close()
}
