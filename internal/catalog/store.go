// Package catalog persists manifests so a workspace can be rebuilt without
// the original files. Entries are keyed by assembly name; the SQL store
// backs local and shared databases and the Redis store serves several
// processes at once.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no entry exists for an assembly
var ErrNotFound = errors.New("catalog: entry not found")

// Entry is one stored manifest
type Entry struct {
	ID          uuid.UUID
	Assembly    string
	SourcePath  string
	Fingerprint uint64
	Payload     []byte
	SavedAt     time.Time
}

// NewEntry creates an entry with a fresh ID and the payload's fingerprint
func NewEntry(assembly, sourcePath string, payload []byte) *Entry {
	return &Entry{
		ID:          uuid.New(),
		Assembly:    assembly,
		SourcePath:  sourcePath,
		Fingerprint: Fingerprint(payload),
		Payload:     payload,
		SavedAt:     time.Now().UTC(),
	}
}

// Fingerprint hashes a manifest payload
func Fingerprint(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// Verify reports whether the payload still matches the recorded fingerprint.
func (e *Entry) Verify() error {
	if got := Fingerprint(e.Payload); got != e.Fingerprint {
		return fmt.Errorf("catalog entry %s: fingerprint %016x does not match payload (%016x)", e.Assembly, e.Fingerprint, got)
	}
	return nil
}

// Store persists catalog entries
type Store interface {
	// Init prepares the backing storage. It is safe to call more than once.
	Init(ctx context.Context) error
	// Put inserts the entry or replaces the one stored for the same assembly.
	Put(ctx context.Context, e *Entry) error
	Get(ctx context.Context, assembly string) (*Entry, error)
	// List returns all entries ordered by assembly name.
	List(ctx context.Context) ([]*Entry, error)
	Delete(ctx context.Context, assembly string) error
	Reset(ctx context.Context) error
	Close() error
}

// Open connects to the store selected by driver. sqlite3, pgx and postgres
// use dsn; redis uses redisAddr.
func Open(ctx context.Context, driver, dsn, redisAddr string, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch driver {
	case "redis":
		store, err = OpenRedisStore(ctx, redisAddr, logger)
	case "sqlite3", "pgx", "postgres":
		store, err = OpenSQLStore(driver, dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
