package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
)

// docsCommand manages stored documents.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"doc"},
		Short:   "Manage stored simulation documents",
		Long: `Manage simulation documents kept in the configured store.

The store backend (file, memory, redis or mongo) is set in the [store]
section of config.toml. Stored documents are the ones the HTTP API edits.`,
	}

	cmd.AddCommand(c.docsSaveCommand())
	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsShowCommand())
	cmd.AddCommand(c.docsExportCommand())
	cmd.AddCommand(c.docsDeleteCommand())

	return cmd
}

// withRepository opens the store for the duration of fn.
func (c *CLI) withRepository(ctx context.Context, fn func(*session.Repository) error) error {
	repo, s, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(repo)
}

func (c *CLI) docsSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Import a simulation document into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			sess := session.New()
			if err := sess.Load(data); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			doc := session.NewDocument(name, sess.Graph())

			return c.withRepository(cmd.Context(), func(repo *session.Repository) error {
				if err := repo.Save(cmd.Context(), doc); err != nil {
					return err
				}
				printSuccess("Saved %s", StyleValue.Render(doc.Name))
				printKeyValue("id", doc.ID)
				printNextStep("Export it again", "meshgraph docs export "+doc.ID+" -f yaml")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name (default: file name)")
	return cmd
}

func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepository(cmd.Context(), func(repo *session.Repository) error {
				docs, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					printInfo("No stored documents")
					return nil
				}
				fmt.Println(summaryTable(docs))
				return nil
			})
		},
	}
}

func summaryTable(docs []session.Summary) string {
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{
			d.ID,
			d.Name,
			fmt.Sprintf("%d", d.Nodes),
			fmt.Sprintf("%d", d.Edges),
			d.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Methods", "Calls", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 || col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) docsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the methods of a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepository(cmd.Context(), func(repo *session.Repository) error {
				doc, err := repo.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				g, err := doc.Open()
				if err != nil {
					return err
				}
				stats := pipeline.Summarize(g)
				fmt.Println(StyleTitle.Render(doc.Name) + " " + StyleDim.Render(doc.ID))
				printStats(stats.ServiceCount, stats.NodeCount, stats.EdgeCount, stats.Unresolved, 0)
				fmt.Println(nodeTable(g))
				printKeyValue("created", doc.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				printKeyValue("updated", doc.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
}

func (c *CLI) docsExportCommand() *cobra.Command {
	var (
		output  string
		formats string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored document",
		Long: `Export a stored document. With a single format and no -o the output
goes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := parseFormats(formats, pipeline.FormatJSON)
			if err := pipeline.ValidateFormats(list); err != nil {
				return err
			}
			return c.withRepository(cmd.Context(), func(repo *session.Repository) error {
				return c.exportDocument(cmd.Context(), repo, args[0], list, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): json (default), yaml, compose, dot, svg, png, graph")
	return cmd
}

func (c *CLI) exportDocument(ctx context.Context, repo *session.Repository, id string, formats []string, output string) error {
	doc, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	g, err := doc.Open()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(false)
	if err != nil {
		return err
	}
	defer runner.Close()

	artifacts, err := runner.Render(ctx, g, pipeline.Options{
		Source:  doc.Name,
		Formats: formats,
		Logger:  loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}

	if len(formats) == 1 && output == "" {
		_, err := os.Stdout.Write(artifacts[formats[0]])
		return err
	}
	if output == "" {
		output = doc.Name
		if errors.ValidateFilename(output) != nil {
			output = "simulation"
		}
	}
	for _, format := range formats {
		path := outputPath(output, "", format, len(formats) == 1)
		if err := writeOutput("", path, artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

func (c *CLI) docsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepository(cmd.Context(), func(repo *session.Repository) error {
				if err := repo.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}
