package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/catalog"
	"github.com/conduit-lang/typesystem/internal/cli/config"
	"github.com/conduit-lang/typesystem/internal/cli/ui"
	"github.com/conduit-lang/typesystem/internal/logging"
	"github.com/conduit-lang/typesystem/internal/manifest"
	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/watch"
)

// env is the configuration, logger and output streams of one command run
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
	out     io.Writer
	errOut  io.Writer
}

// newEnv loads typesys.yml and applies the persistent flags. Long-running
// commands log at the configured level; the others only log warnings unless
// --verbose is set.
func newEnv(cmd *cobra.Command, opts *globalOptions, longRunning bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if len(opts.manifests) > 0 {
		cfg.Manifests = opts.manifests
	}

	level := cfg.Log.Level
	if !longRunning && !opts.verbose {
		level = "warn"
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		noColor: opts.noColor,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

// manifestFiles expands the configured manifest paths
func (e *env) manifestFiles() ([]string, error) {
	if len(e.cfg.Manifests) == 0 {
		return nil, fmt.Errorf("no manifests configured; pass --manifest or set manifests in typesys.yml")
	}
	files, err := watch.ExpandManifests(e.cfg.Manifests)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no manifests found in %v", e.cfg.Manifests)
	}
	return files, nil
}

// openCatalog opens the configured catalog store
func (e *env) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	store, err := catalog.Open(ctx, e.cfg.Catalog.Driver, e.cfg.Catalog.DSN, e.cfg.Catalog.RedisAddr, e.logger)
	if err != nil {
		return nil, err
	}
	return catalog.New(store, e.logger), nil
}

// workspace builds a workspace from the manifests or, with fromCatalog, from
// the catalog store
func (e *env) workspace(ctx context.Context, fromCatalog bool) (*project.Workspace, error) {
	ws := project.NewWorkspace()

	if fromCatalog {
		cat, err := e.openCatalog(ctx)
		if err != nil {
			return nil, err
		}
		defer cat.Store().Close()

		n, err := cat.Load(ctx, ws)
		if err != nil {
			return nil, e.manifestFailure(err)
		}
		if n == 0 {
			return nil, fmt.Errorf("catalog is empty; run 'typesys catalog import' first")
		}
		return ws, nil
	}

	files, err := e.manifestFiles()
	if err != nil {
		return nil, err
	}
	if err := manifest.NewLoader(e.logger).LoadInto(ctx, ws, files); err != nil {
		return nil, e.manifestFailure(err)
	}
	return ws, nil
}

// debounce returns the configured watch debounce
func (e *env) debounce() time.Duration {
	return time.Duration(e.cfg.Watch.DebounceMS) * time.Millisecond
}

// manifestFailure prints the manifest problems carried by err and returns a
// one-line summary. Other errors are returned unchanged.
func (e *env) manifestFailure(err error) error {
	var one *manifest.ManifestError
	if !errors.As(err, &one) {
		return err
	}
	msgs := ui.ManifestProblems(err, e.noColor)
	for _, m := range msgs {
		m.Write(e.errOut)
	}
	return fmt.Errorf("%d manifest problem(s)", len(msgs))
}
