package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/internal/server"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/store"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origins []string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for importing, exporting, validating and rendering
simulation documents, and for editing stored documents.

Documents are kept in the store configured in config.toml. Rendered SVG
and PNG output is cached in the same store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("cors-origin") {
				c.Config.Server.CORSOrigins = origins
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origins (repeatable)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	logger := loggerFromContext(ctx)

	repo, s, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var cache store.Store = store.NewNullStore()
	if !noCache {
		cache = s
	}
	runner := pipeline.NewRunner(cache, logger)

	srv := server.New(server.Config{
		Addr:        c.Config.Server.Addr,
		CORSOrigins: c.Config.Server.CORSOrigins,
		Runner:      runner,
		Repo:        repo,
		Logger:      logger,
	})
	printInfo("Listening on %s", c.Config.Server.Addr)
	printDetail("store: %s", c.Config.Store.Backend)
	return srv.ListenAndServe(ctx)
}
