package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/server"
	"github.com/conduit-lang/typesystem/internal/watch"
)

// NewServeCommand creates the serve command
func NewServeCommand(opts *globalOptions) *cobra.Command {
	var (
		host        string
		port        int
		fromCatalog bool
		watchFiles  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve type queries over HTTP",
		Long: `Start the JSON query server over the loaded assemblies.

Endpoints:
  GET /healthz
  GET /namespaces
  GET /types?namespace=NS
  GET /types/{reflection-name}
  GET /types/{reflection-name}/bases?all=true
  GET /types/{reflection-name}/nested
  GET /types/{reflection-name}/members?kind=method

Reflection names must be URL-escaped. With --watch, GET /events accepts
WebSocket subscribers and sends a JSON message after every reload.

When server.token_secret is configured every endpoint except /healthz
requires a token from 'typesys token', sent as "Authorization: Bearer"
or the access_token query parameter.

Examples:
  typesys serve --port 7070
  typesys serve --watch
  typesys serve --from-catalog
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromCatalog && watchFiles {
				return fmt.Errorf("--watch cannot be combined with --from-catalog")
			}

			e, err := newEnv(cmd, opts, true)
			if err != nil {
				return err
			}
			defer e.close()
			if cmd.Flags().Changed("host") {
				e.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				e.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				ws          *project.Workspace
				handlerOpts []server.HandlerOption
			)
			if secret := e.cfg.Server.TokenSecret; secret != "" {
				auth, err := server.NewTokenAuth(secret, e.cfg.Server.TokenTTL)
				if err != nil {
					return err
				}
				handlerOpts = append(handlerOpts, server.WithTokenAuth(auth))
			}
			if watchFiles {
				events := server.NewEvents(e.logger)
				defer events.Close()
				handlerOpts = append(handlerOpts, server.WithEvents(events))

				ws = project.NewWorkspace()
				fw, err := startWatching(ctx, e, ws, func(result *watch.ReloadResult) {
					events.Publish(changeEvent(result))
				})
				if err != nil {
					return err
				}
				defer fw.Stop()
			} else {
				ws, err = e.workspace(ctx, fromCatalog)
				if err != nil {
					return err
				}
			}

			cached, err := project.NewCached(ws, e.cfg.Cache.Size)
			if err != nil {
				return err
			}
			srv, err := server.New(server.DefaultConfig(e.cfg.Server.Addr(), server.NewHandler(cached, e.logger, handlerOpts...)), e.logger)
			if err != nil {
				return err
			}
			if err := srv.Listen(); err != nil {
				return err
			}

			banner := color.New(color.FgCyan, color.Bold)
			fmt.Fprintln(e.out)
			banner.Fprintln(e.out, "typesys query server")
			color.New(color.FgWhite).Fprintf(e.out, "   Listening on http://%s\n", srv.Addr())
			fmt.Fprintln(e.out)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Host to bind")
	cmd.Flags().IntVar(&port, "port", 7070, "Port to bind")
	cmd.Flags().BoolVar(&fromCatalog, "from-catalog", false, "Load assemblies from the catalog instead of manifests")
	cmd.Flags().BoolVar(&watchFiles, "watch", false, "Reload manifests while serving")

	return cmd
}

// changeEvent converts a reload into the message sent to /events subscribers
func changeEvent(result *watch.ReloadResult) *server.ChangeEvent {
	ev := &server.ChangeEvent{
		Type:     "reloaded",
		Files:    result.ChangedFiles,
		Loaded:   result.Loaded,
		Removed:  result.Removed,
		Duration: float64(result.Duration.Milliseconds()),
	}
	for _, err := range result.Errors {
		for _, me := range manifestErrors(err) {
			ev.Errors = append(ev.Errors, server.EventError{
				Code:    string(me.Code),
				Message: me.Message,
				File:    me.File,
				Type:    me.Type,
				Member:  me.Member,
			})
		}
	}
	if len(ev.Errors) > 0 {
		ev.Type = "error"
	}
	return ev
}
