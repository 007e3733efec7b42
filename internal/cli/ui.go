package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/meshgraph/pkg/classify"
	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + StyleError.Render(fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Graph Output
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(services, nodes, edges, unresolved, cached int) {
	parts := []string{
		fmt.Sprintf("%d services", services),
		fmt.Sprintf("%d methods", nodes),
		fmt.Sprintf("%d calls", edges),
	}
	if unresolved > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d unresolved", unresolved)))
	}
	if cached > 0 {
		parts = append(parts, styleCached.Render(fmt.Sprintf("%d cached", cached)))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printIssues prints lint findings, errors first as reported.
func printIssues(issues []spec.Issue) {
	for _, is := range issues {
		msg := fmt.Sprintf("%s: %s", is.Path, is.Message)
		if is.Severity == spec.SeverityError {
			printError("%s", msg)
		} else {
			printWarning("%s", msg)
		}
	}
}

// categoryLabel renders a category name in its terminal color.
func categoryLabel(c classify.Category) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Style().ANSI)).Render(c.String())
}

// nodeTable renders the methods of g as a bordered table.
func nodeTable(g *graph.Graph) string {
	rows := make([][]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		port := "-"
		if n.Port != nil {
			port = strconv.Itoa(*n.Port)
		}
		rps := "-"
		if n.RequestsPerSecond != nil {
			rps = strconv.FormatFloat(*n.RequestsPerSecond, 'g', -1, 64)
		}
		calls := fmt.Sprintf("%d", len(g.Children(n.ID)))
		if missing := len(g.Unresolved(n.ID)); missing > 0 {
			calls += StyleWarning.Render(fmt.Sprintf(" (+%d unresolved)", missing))
		}
		rows = append(rows, []string{
			n.ID,
			n.FullName(),
			port,
			categoryLabel(classify.Classify(n)),
			rps,
			calls,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Method", "Port", "Category", "RPS", "Calls").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
