package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The config file is loaded before any subcommand runs; a missing file
// leaves the defaults in place. Flags given on the command line win over
// file values.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "meshgraph converts service call graphs to simulator configurations",
		Long: `meshgraph edits and converts microservice call graphs.

A simulation document lists services, their methods, the calls between
methods and the load applied to entry points. meshgraph imports such a
document as a graph, lints it, renders it, and exports it back as JSON,
simulator YAML or docker-compose files.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/meshgraph/config.toml)")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
