package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
)

// dialect captures the differences between the supported SQL databases
type dialect struct {
	numbered bool
	blobType string
}

var dialects = map[string]dialect{
	"sqlite3":  {numbered: false, blobType: "BLOB"},
	"pgx":      {numbered: true, blobType: "BYTEA"},
	"postgres": {numbered: true, blobType: "BYTEA"},
}

// bind rewrites ? placeholders to $N for databases that number them
func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore keeps catalog entries in a relational database
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// OpenSQLStore opens a database with one of the registered drivers
func OpenSQLStore(driver, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if driver == "sqlite3" {
		// One connection keeps ":memory:" databases alive and avoids
		// SQLITE_BUSY from concurrent writers.
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db, driver, logger)
}

// NewSQLStore wraps an open database. driver selects the SQL dialect.
func NewSQLStore(db *sql.DB, driver string, logger *zap.Logger) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}
	return &SQLStore{db: db, dialect: d, logger: logging.OrNop(logger)}, nil
}

// Init creates the catalog table
func (s *SQLStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS catalog_entries (
	assembly VARCHAR(255) PRIMARY KEY,
	id VARCHAR(36) NOT NULL,
	source_path TEXT NOT NULL,
	fingerprint VARCHAR(16) NOT NULL,
	payload %s NOT NULL,
	saved_at TIMESTAMP NOT NULL
)`, s.dialect.blobType)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize catalog table: %w", err)
	}
	return nil
}

// Put upserts an entry by assembly
func (s *SQLStore) Put(ctx context.Context, e *Entry) error {
	query := s.dialect.bind(`
INSERT INTO catalog_entries (assembly, id, source_path, fingerprint, payload, saved_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (assembly) DO UPDATE SET
	id = excluded.id,
	source_path = excluded.source_path,
	fingerprint = excluded.fingerprint,
	payload = excluded.payload,
	saved_at = excluded.saved_at`)

	_, err := s.db.ExecContext(ctx, query,
		e.Assembly, e.ID.String(), e.SourcePath, formatFingerprint(e.Fingerprint), e.Payload, e.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store catalog entry %s: %w", e.Assembly, err)
	}
	s.logger.Debug("catalog entry stored", zap.String("assembly", e.Assembly), zap.String("id", e.ID.String()))
	return nil
}

// Get returns the entry for assembly, or ErrNotFound
func (s *SQLStore) Get(ctx context.Context, assembly string) (*Entry, error) {
	query := s.dialect.bind(`
SELECT assembly, id, source_path, fingerprint, payload, saved_at
FROM catalog_entries
WHERE assembly = ?`)

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, assembly))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog entry %s: %w", assembly, err)
	}
	return e, nil
}

// List returns every entry ordered by assembly
func (s *SQLStore) List(ctx context.Context) ([]*Entry, error) {
	query := `
SELECT assembly, id, source_path, fingerprint, payload, saved_at
FROM catalog_entries
ORDER BY assembly`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the entry for assembly, or returns ErrNotFound
func (s *SQLStore) Delete(ctx context.Context, assembly string) error {
	result, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM catalog_entries WHERE assembly = ?`), assembly)
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry %s: %w", assembly, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset removes every entry
func (s *SQLStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries`); err != nil {
		return fmt.Errorf("failed to reset catalog: %w", err)
	}
	s.logger.Info("catalog reset")
	return nil
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e       Entry
		id, fp  string
		savedAt time.Time
	)
	if err := row.Scan(&e.Assembly, &id, &e.SourcePath, &fp, &e.Payload, &savedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", id, err)
	}
	e.ID = parsed
	if e.Fingerprint, err = strconv.ParseUint(fp, 16, 64); err != nil {
		return nil, fmt.Errorf("invalid fingerprint %q: %w", fp, err)
	}
	e.SavedAt = savedAt.UTC()
	return &e, nil
}

// formatFingerprint renders a fingerprint as fixed-width hex. Unsigned 64-bit
// values do not fit every database's integer columns.
func formatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
