package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/typesystem/internal/project"
)

func setupSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLStore("sqlite3", ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, DefaultRedisPrefix, nil)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func stores(t *testing.T) map[string]Store {
	redisStore, _ := setupRedisStore(t)
	return map[string]Store{
		"sqlite": setupSQLiteStore(t),
		"redis":  redisStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			entry := NewEntry("corlib", "corlib.yml", []byte("assembly: corlib\n"))
			require.NoError(t, store.Put(ctx, entry))

			got, err := store.Get(ctx, "corlib")
			require.NoError(t, err)
			assert.Equal(t, entry.ID, got.ID)
			assert.Equal(t, entry.Assembly, got.Assembly)
			assert.Equal(t, entry.SourcePath, got.SourcePath)
			assert.Equal(t, entry.Fingerprint, got.Fingerprint)
			assert.Equal(t, entry.Payload, got.Payload)
			assert.WithinDuration(t, entry.SavedAt, got.SavedAt, time.Millisecond)
			assert.NoError(t, got.Verify())
		})
	}
}

func TestStorePutReplaces(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, NewEntry("app", "v1.yml", []byte("v1"))))
			second := NewEntry("app", "v2.yml", []byte("v2"))
			require.NoError(t, store.Put(ctx, second))

			entries, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, second.ID, entries[0].ID)
			assert.Equal(t, "v2.yml", entries[0].SourcePath)
			assert.Equal(t, []byte("v2"), entries[0].Payload)
		})
	}
}

func TestStoreListDeleteReset(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, a := range []string{"zeta", "alpha", "mid"} {
				require.NoError(t, store.Put(ctx, NewEntry(a, a+".yml", []byte(a))))
			}

			entries, err := store.List(ctx)
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				names = append(names, e.Assembly)
			}
			assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

			require.NoError(t, store.Delete(ctx, "mid"))
			assert.ErrorIs(t, store.Delete(ctx, "mid"), ErrNotFound)
			_, err = store.Get(ctx, "mid")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Reset(ctx))
			entries, err = store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSQLStoreInitIsIdempotent(t *testing.T) {
	store := setupSQLiteStore(t)
	assert.NoError(t, store.Init(context.Background()))
}

func TestSQLStoreUnsupportedDriver(t *testing.T) {
	_, err := OpenSQLStore("mysql", "", nil)
	assert.Error(t, err)

	_, err = Open(context.Background(), "oracle", "", "", nil)
	assert.Error(t, err)
}

func TestSQLStoreNumberedPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLStore(db, "postgres", nil)
	require.NoError(t, err)

	entry := NewEntry("app", "app.yml", []byte("payload"))
	mock.ExpectExec(`INSERT INTO catalog_entries .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("app", entry.ID.String(), "app.yml", formatFingerprint(entry.Fingerprint), []byte("payload"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM catalog_entries\s+WHERE assembly = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"assembly", "id", "source_path", "fingerprint", "payload", "saved_at"}))
	mock.ExpectExec(`DELETE FROM catalog_entries WHERE assembly = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Put(context.Background(), entry))
	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "missing"), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRejectsCorruptRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLStore(db, "pgx", nil)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM catalog_entries`).
		WillReturnRows(sqlmock.NewRows([]string{"assembly", "id", "source_path", "fingerprint", "payload", "saved_at"}).
			AddRow("app", "not-a-uuid", "app.yml", "00", []byte("x"), time.Now()))

	_, err = store.List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreWrapsDatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLStore(db, "sqlite3", nil)
	require.NoError(t, err)

	boom := errors.New("disk full")
	mock.ExpectExec(`DELETE FROM catalog_entries`).WillReturnError(boom)

	err = store.Reset(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreKeys(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, NewEntry("corlib", "corlib.yml", []byte("data"))))
	assert.True(t, mr.Exists(DefaultRedisPrefix+"entry:corlib"))
	members, err := mr.Members(DefaultRedisPrefix + "assemblies")
	require.NoError(t, err)
	assert.Equal(t, []string{"corlib"}, members)

	require.NoError(t, store.Reset(ctx))
	assert.False(t, mr.Exists(DefaultRedisPrefix+"assemblies"))
}

func TestOpenRedisStoreConnectionError(t *testing.T) {
	_, err := Open(context.Background(), "redis", "", "localhost:99999", nil)
	assert.Error(t, err)
}

func TestEntryVerify(t *testing.T) {
	e := NewEntry("app", "app.yml", []byte("payload"))
	assert.NoError(t, e.Verify())

	e.Payload = []byte("tampered")
	assert.Error(t, e.Verify())
}

const coreManifest = `assembly: core
types:
  - {namespace: System, name: Object}
  - {namespace: System, name: String}
`

const appManifest = `assembly: app
types:
  - namespace: App
    name: Program
    methods:
      - {name: Main, static: true}
`

func writeManifest(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCatalogImportAndLoad(t *testing.T) {
	dir := t.TempDir()
	core := writeManifest(t, dir, "core.yml", coreManifest)
	app := writeManifest(t, dir, "app.yml", appManifest)

	cat := New(setupSQLiteStore(t), nil)
	ctx := context.Background()

	written, err := cat.Import(ctx, []string{core, app})
	require.NoError(t, err)
	assert.Len(t, written, 2)

	written, err = cat.Import(ctx, []string{core, app})
	require.NoError(t, err)
	assert.Empty(t, written, "unchanged manifests are not rewritten")

	ws := project.NewWorkspace()
	n, err := cat.Load(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"app", "core"}, ws.Assemblies())
	assert.NotNil(t, ws.GetTypeDefinition("App", "Program", 0))
	assert.NotNil(t, ws.GetTypeDefinition("System", "String", 0))
}

func TestCatalogImportRejectsInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	bad := writeManifest(t, dir, "bad.yml", "types:\n  - {name: Orphan}\n")

	store, _ := setupRedisStore(t)
	cat := New(store, nil)
	written, err := cat.Import(context.Background(), []string{bad})
	assert.Error(t, err)
	assert.Empty(t, written)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCatalogLoadRejectsTamperedEntry(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	entry := NewEntry("core", "core.yml", []byte(coreManifest))
	entry.Payload = []byte(appManifest)
	require.NoError(t, store.Put(ctx, entry))

	ws := project.NewWorkspace()
	_, err := New(store, nil).Load(ctx, ws)
	assert.Error(t, err)
	assert.Empty(t, ws.Assemblies())
}
