package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/pkg/spec"
)

// validateCommand lints a simulation document.
func (c *CLI) validateCommand() *cobra.Command {
	var strictWarnings bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a simulation document against the simulator rules",
		Long: `Check a simulation document against the simulator rules.

Errors make the command exit non-zero. Warnings are reported but do not
fail validation unless --warnings-as-errors is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args[0], strictWarnings)
		},
	}
	cmd.Flags().BoolVar(&strictWarnings, "warnings-as-errors", false, "fail on warnings as well as errors")
	return cmd
}

func runValidate(ctx context.Context, path string, strictWarnings bool) error {
	logger := loggerFromContext(ctx)

	doc, err := spec.ReadFile(path)
	if err != nil {
		printError("%s", err)
		return fmt.Errorf("%s: invalid document", path)
	}
	issues := spec.Validate(doc)
	logger.Debug("linted", "path", path, "issues", len(issues))

	printIssues(issues)

	errs, warns := 0, 0
	for _, is := range issues {
		if is.Severity == spec.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	if errs > 0 || (strictWarnings && warns > 0) {
		return fmt.Errorf("%s: %d errors, %d warnings", path, errs, warns)
	}
	if warns > 0 {
		printSuccess("%s is valid with %d warnings", path, warns)
	} else {
		printSuccess("%s is valid", path)
	}
	printDetail("%d services, %d methods", len(doc.Services), doc.MethodCount())
	return nil
}
