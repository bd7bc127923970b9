package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
	"github.com/conduit-lang/typesystem/internal/manifest"
	"github.com/conduit-lang/typesystem/internal/project"
)

// Catalog moves manifests between files, a Store and a Workspace
type Catalog struct {
	store  Store
	loader *manifest.Loader
	logger *zap.Logger
}

// New creates a catalog over store
func New(store Store, logger *zap.Logger) *Catalog {
	logger = logging.OrNop(logger)
	return &Catalog{store: store, loader: manifest.NewLoader(logger), logger: logger}
}

// Store returns the underlying store
func (c *Catalog) Store() Store { return c.store }

// Import validates each manifest and stores it under its assembly name.
// Manifests whose fingerprint matches the stored entry are left untouched.
// It returns the entries that were written.
func (c *Catalog) Import(ctx context.Context, paths []string) ([]*Entry, error) {
	var written []*Entry
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return written, fmt.Errorf("failed to read %s: %w", path, err)
		}
		content, err := c.loader.Parse(data, path)
		if err != nil {
			return written, err
		}

		entry := NewEntry(content.Assembly(), path, data)
		existing, err := c.store.Get(ctx, entry.Assembly)
		switch {
		case err == nil && existing.Fingerprint == entry.Fingerprint:
			c.logger.Debug("manifest unchanged", zap.String("assembly", entry.Assembly), zap.String("path", path))
			continue
		case err != nil && !errors.Is(err, ErrNotFound):
			return written, err
		}

		if err := c.store.Put(ctx, entry); err != nil {
			return written, err
		}
		c.logger.Info("manifest imported",
			zap.String("assembly", entry.Assembly),
			zap.String("path", path),
			zap.Int("types", content.Len()))
		written = append(written, entry)
	}
	return written, nil
}

// Load builds every stored manifest and installs it in the workspace. It
// returns the number of assemblies loaded.
func (c *Catalog) Load(ctx context.Context, ws *project.Workspace) (int, error) {
	entries, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}

	contents := make([]*project.Content, 0, len(entries))
	for _, e := range entries {
		if err := e.Verify(); err != nil {
			return 0, err
		}
		content, err := c.loader.Parse(e.Payload, e.SourcePath)
		if err != nil {
			return 0, fmt.Errorf("catalog entry %s: %w", e.Assembly, err)
		}
		if content.Assembly() != e.Assembly {
			return 0, fmt.Errorf("catalog entry %s holds assembly %s", e.Assembly, content.Assembly())
		}
		contents = append(contents, content)
	}

	for _, content := range contents {
		ws.Replace(content)
	}
	c.logger.Info("catalog loaded", zap.Int("assemblies", len(contents)))
	return len(contents), nil
}
