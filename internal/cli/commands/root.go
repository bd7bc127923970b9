package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	manifests []string
	noColor   bool
	verbose   bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "typesys",
		Short: "Load, query and serve .NET-style type system metadata",
		Long: color.CyanString(`typesys - type system metadata toolkit

typesys loads assemblies of type definitions from YAML manifests and
answers questions about them: what a reflection name resolves to, which
base types and members a constructed generic type has, and how type
parameters are substituted along the way.

Features:
  • Reflection name parsing (List` + "`" + `1[[System.Int32]], T[], T*, T&)
  • Member lookup with generic specialization
  • Manifest catalog in SQLite, PostgreSQL or Redis
  • JSON query server with live manifest reload`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSliceVarP(&opts.manifests, "manifest", "m", nil, "Manifest files or directories (overrides typesys.yml)")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewInspectCommand(opts))
	rootCmd.AddCommand(NewTypesCommand(opts))
	rootCmd.AddCommand(NewCheckCommand(opts))
	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))
	rootCmd.AddCommand(NewCatalogCommand(opts))
	rootCmd.AddCommand(NewTokenCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the typesys version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "typesys version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
