package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/typesystem/internal/catalog"
	"github.com/conduit-lang/typesystem/internal/cli/ui"
	"github.com/conduit-lang/typesystem/internal/project"
)

// NewCatalogCommand creates the catalog command and its subcommands
func NewCatalogCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Persist manifests in the configured catalog store",
		Long: `Import validated manifests into the catalog and manage its entries.

The store is selected by catalog.driver in typesys.yml (sqlite3, pgx,
postgres or redis) and can be overridden with TYPESYS_CATALOG_DRIVER and
TYPESYS_CATALOG_DSN.`,
	}

	cmd.AddCommand(newCatalogImportCommand(opts))
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogLoadCommand(opts))
	cmd.AddCommand(newCatalogRemoveCommand(opts))
	cmd.AddCommand(newCatalogResetCommand(opts))

	return cmd
}

// withCatalog runs fn against an open catalog and closes it afterwards
func withCatalog(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, e *env, cat *catalog.Catalog) error) error {
	e, err := newEnv(cmd, opts, false)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	cat, err := e.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer cat.Store().Close()

	return fn(ctx, e, cat)
}

func newCatalogImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import [manifest...]",
		Short: "Validate manifests and store them in the catalog",
		Long: `Validate each manifest and store it under its assembly name. Manifests
whose content has not changed since the last import are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.manifests = args
			}
			return withCatalog(cmd, opts, func(ctx context.Context, e *env, cat *catalog.Catalog) error {
				files, err := e.manifestFiles()
				if err != nil {
					return err
				}
				written, err := cat.Import(ctx, files)
				if err != nil {
					return e.manifestFailure(err)
				}

				if len(written) == 0 {
					ui.Success(e.out, "catalog is up to date", e.noColor)
					return nil
				}
				names := make([]string, len(written))
				for i, entry := range written {
					names[i] = entry.Assembly
				}
				ui.Success(e.out, fmt.Sprintf("imported %s", strings.Join(names, ", ")), e.noColor)
				return nil
			})
		},
	}
}

func newCatalogListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(ctx context.Context, e *env, cat *catalog.Catalog) error {
				entries, err := cat.Store().List(ctx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					ui.Message{Level: ui.LevelInfo, Title: "catalog is empty", NoColor: e.noColor}.Write(e.out)
					return nil
				}

				table := ui.NewTable(e.noColor, "ASSEMBLY", "FINGERPRINT", "SAVED", "SOURCE")
				for _, entry := range entries {
					table.AddRow(
						entry.Assembly,
						fmt.Sprintf("%016x", entry.Fingerprint),
						entry.SavedAt.Local().Format(time.DateTime),
						entry.SourcePath,
					)
				}
				table.Render(e.out)
				return nil
			})
		},
	}
}

func newCatalogLoadCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Verify that every catalog entry builds",
		Long: `Load every catalog entry into a fresh workspace, checking fingerprints and
manifest contents, and report the assemblies it holds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(ctx context.Context, e *env, cat *catalog.Catalog) error {
				ws := project.NewWorkspace()
				n, err := cat.Load(ctx, ws)
				if err != nil {
					return e.manifestFailure(err)
				}
				types := 0
				for range ws.TypeDefinitions() {
					types++
				}
				ui.Success(e.out, fmt.Sprintf("loaded %d assemblies with %d types", n, types), e.noColor)
				return nil
			})
		},
	}
}

func newCatalogRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <assembly>",
		Short: "Remove an assembly from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(ctx context.Context, e *env, cat *catalog.Catalog) error {
				if err := cat.Store().Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to remove %s: %w", args[0], err)
				}
				ui.Success(e.out, "removed "+args[0], e.noColor)
				return nil
			})
		},
	}
}

func newCatalogResetCommand(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every catalog entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: "Delete every entry in the catalog?",
					Default: false,
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
				if !confirmed {
					return nil
				}
			}

			return withCatalog(cmd, opts, func(ctx context.Context, e *env, cat *catalog.Catalog) error {
				if err := cat.Store().Reset(ctx); err != nil {
					return err
				}
				ui.Success(e.out, "catalog reset", e.noColor)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
