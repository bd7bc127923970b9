package manifest

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/typesystem/internal/logging"
	"github.com/conduit-lang/typesystem/internal/project"
)

// Loader reads manifest files into project content
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a loader. A nil logger discards log output.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logging.OrNop(logger)}
}

// Parse decodes and builds a manifest held in memory. source names the
// document in error messages.
func (l *Loader) Parse(data []byte, source string) (*project.Content, error) {
	doc, err := Decode(data)
	if err != nil {
		if me, ok := err.(*ManifestError); ok {
			me.File = source
		}
		return nil, err
	}
	doc.Source = source
	return Build(doc)
}

// LoadFile reads and builds a single manifest
func (l *Loader) LoadFile(path string) (*project.Content, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{
			Code:    ErrReadFailed,
			Message: fmt.Sprintf("failed to read manifest: %v", err),
			File:    path,
			Cause:   err,
		}
	}

	content, err := l.Parse(data, path)
	if err != nil {
		l.logger.Warn("manifest rejected", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	l.logger.Debug("manifest loaded",
		zap.String("path", path),
		zap.String("assembly", content.Assembly()),
		zap.Int("types", content.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return content, nil
}

// LoadFiles loads manifests concurrently. Results are in the order of paths;
// the first failure cancels the remaining loads.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]*project.Content, error) {
	results := make([]*project.Content, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := l.LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("manifests loaded", zap.Int("count", len(paths)))
	return results, nil
}

// LoadInto loads manifests and installs each one in the workspace
func (l *Loader) LoadInto(ctx context.Context, ws *project.Workspace, paths []string) error {
	contents, err := l.LoadFiles(ctx, paths)
	if err != nil {
		return err
	}

	owners := make(map[string]string, len(contents))
	var errs ErrorList
	for i, c := range contents {
		if other, ok := owners[c.Assembly()]; ok {
			errs = append(errs, NewDuplicateAssemblyError(c.Assembly(), paths[i], other))
			continue
		}
		owners[c.Assembly()] = paths[i]
	}
	if len(errs) > 0 {
		return errs
	}

	for _, c := range contents {
		ws.Replace(c)
	}
	return nil
}
