package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
)

// convertOpts holds the flags of the convert command.
type convertOpts struct {
	output  string
	formats string
	noCache bool
	pipeline.Options
}

// convertCommand writes a simulation document in other formats.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a simulation document to YAML, compose, DOT, SVG, PNG or JSON",
		Long: `Convert a simulation document to one or more output formats.

Formats:
  json     simulation document re-exported from the call graph
  yaml     simulator configuration
  compose  docker-compose file with one container per service
  dot      Graphviz source
  svg, png rendered call graph
  graph    lossless graph snapshot, including node ids and positions

With a single format, -o names the output file. With several, -o is a base
path and each format adds its own extension.`,
		Example: `  meshgraph convert checkout.json -f yaml
  meshgraph convert checkout.json -f svg,png -o out/checkout --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(opts.formats, pipeline.FormatYAML)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runConvert(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): yaml (default), json, compose, dot, svg, png, graph")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when the document has lint errors")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show latency and error distributions in diagrams")
	cmd.Flags().BoolVar(&opts.ShowUnresolved, "unresolved", false, "draw calls to unknown methods")
	cmd.Flags().StringVar(&opts.Direction, "direction", "LR", "diagram direction: LR, TB, RL, BT")
	cmd.Flags().StringVar(&opts.Image, "image", "", "container image for compose output")
	cmd.Flags().StringVar(&opts.Network, "network", "", "network name for compose output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even when a cached render exists")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, input string, opts *convertOpts) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := opts.Options
	popts.Source = input
	popts.Input = data
	popts.Logger = logger

	prog := newProgress(logger)
	var sp *spinner
	if slices.Contains(popts.Formats, pipeline.FormatSVG) || slices.Contains(popts.Formats, pipeline.FormatPNG) {
		sp = newSpinner(ctx, os.Stderr, "Rendering "+input)
		sp.Start()
	}
	result, err := runner.Execute(ctx, popts)
	if sp != nil {
		sp.Stop()
	}
	if result != nil {
		printIssues(result.Issues)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	single := len(popts.Formats) == 1
	for _, format := range popts.Formats {
		path := outputPath(opts.output, input, format, single)
		if err := writeOutput(input, path, result.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}

	s := result.Stats
	printStats(s.ServiceCount, s.NodeCount, s.EdgeCount, s.Unresolved, s.RenderHits)
	prog.done(fmt.Sprintf("Converted %s to %d formats", input, len(popts.Formats)))
	return nil
}

// writeOutput writes data to path, creating parent directories. It refuses
// to overwrite the input document.
func writeOutput(input, path string, data []byte) error {
	if same, _ := samePath(input, path); same {
		return errors.New(errors.ErrCodeInvalidPath, "refusing to overwrite input %s; use -o", input)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
