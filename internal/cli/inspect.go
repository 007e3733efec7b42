package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/pkg/classify"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
)

// inspectCommand prints the methods of a simulation document.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the methods, categories and calls of a simulation document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0])
		},
	}
}

func runInspect(ctx context.Context, path string) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	opts := pipeline.Options{Source: path, Input: data}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	doc, err := pipeline.Parse(ctx, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	g, err := pipeline.Import(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("imported", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	stats := pipeline.Summarize(g)
	fmt.Println(StyleTitle.Render(path))
	printStats(stats.ServiceCount, stats.NodeCount, stats.EdgeCount, stats.Unresolved, 0)
	fmt.Println(nodeTable(g))
	for _, cat := range classify.All {
		if n := stats.Categories[cat]; n > 0 {
			printKeyValue(categoryLabel(cat), fmt.Sprintf("%d", n))
		}
	}
	return nil
}
