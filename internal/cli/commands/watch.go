package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/cli/ui"
	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(opts *globalOptions) *cobra.Command {
	var debounceMS int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload manifests as they change and report problems",
		Long: `Load the configured manifests, then watch them for changes.

On every save the changed manifests are rebuilt:
  • Valid manifests replace their assembly
  • Invalid manifests are reported and the previous version is kept
  • Deleted manifests remove their assembly

Examples:
  # Watch the manifests listed in typesys.yml
  typesys watch

  # Watch a directory with a longer quiet period
  typesys watch -m types/ --debounce 300
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts, true)
			if err != nil {
				return err
			}
			defer e.close()
			if cmd.Flags().Changed("debounce") {
				e.cfg.Watch.DebounceMS = debounceMS
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ws := project.NewWorkspace()
			fw, err := startWatching(ctx, e, ws, nil)
			if err != nil {
				return err
			}
			defer fw.Stop()

			// Display banner
			banner := color.New(color.FgCyan, color.Bold)
			info := color.New(color.FgWhite)

			fmt.Fprintln(e.out)
			banner.Fprintln(e.out, "typesys watch")
			info.Fprintf(e.out, "   Assemblies: %s\n", strings.Join(ws.Assemblies(), ", "))
			info.Fprintf(e.out, "   Manifests:  %s\n", strings.Join(e.cfg.Manifests, ", "))
			fmt.Fprintln(e.out)
			color.New(color.FgYellow).Fprintln(e.out, "Press Ctrl+C to stop")
			fmt.Fprintln(e.out)

			<-ctx.Done()

			fmt.Fprintln(e.out, "\nShutting down...")
			return nil
		},
	}

	cmd.Flags().IntVar(&debounceMS, "debounce", 100, "Milliseconds to wait for further changes before reloading")

	return cmd
}

// startWatching loads the configured manifests into ws and starts a watcher
// that keeps ws up to date. Each reload is reported on the command output and
// passed to onReload when it is not nil.
func startWatching(ctx context.Context, e *env, ws *project.Workspace, onReload func(*watch.ReloadResult)) (*watch.FileWatcher, error) {
	files, err := e.manifestFiles()
	if err != nil {
		return nil, err
	}

	il := watch.NewIncrementalLoader(ws, e.logger)
	if _, err := il.FullLoad(ctx, files); err != nil {
		return nil, e.manifestFailure(err)
	}

	// Directories are watched as given so new manifests are picked up.
	fw, err := watch.NewFileWatcher(e.cfg.Manifests, e.debounce(), func(changed []string) error {
		result, err := il.Reload(changed)
		reportReload(e, result)
		if onReload != nil {
			onReload(result)
		}
		return err
	}, e.logger)
	if err != nil {
		return nil, err
	}
	if err := fw.Start(); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}

func reportReload(e *env, result *watch.ReloadResult) {
	for _, err := range result.Errors {
		for _, m := range ui.ManifestProblems(err, e.noColor) {
			m.Write(e.errOut)
		}
	}
	if len(result.Loaded) > 0 {
		ui.Success(e.out, fmt.Sprintf("reloaded %s (%s)", strings.Join(result.Loaded, ", "), result.Duration), e.noColor)
	}
	if len(result.Removed) > 0 {
		ui.Message{
			Level:   ui.LevelInfo,
			Title:   "removed " + strings.Join(result.Removed, ", "),
			NoColor: e.noColor,
		}.Write(e.out)
	}
	e.logger.Info("manifests reloaded",
		zap.Strings("files", result.ChangedFiles),
		zap.Strings("loaded", result.Loaded),
		zap.Strings("removed", result.Removed),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration))
}
