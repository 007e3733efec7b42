package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meshgraph/pkg/classify"
	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/session"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// rpsStep is the requests-per-second change applied by + and -.
const rpsStep = 10

var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editPanelStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// editCommand opens the interactive editor.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit a simulation document interactively",
		Long: `Edit a simulation document in the terminal.

Keys:
  ↑/k ↓/j  select a method
  n        add a method with default distributions
  x        delete the selected method
  + / -    raise or lower the selected method's requests per second
  w        write the document
  q        quit (twice with unsaved changes)

A file that does not exist yet starts as an empty document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newEditorModel(args[0])
			if err != nil {
				return err
			}
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return err
			}
			if em, ok := final.(editorModel); ok && em.sess.Modified() {
				printWarning("Quit with unsaved changes to %s", args[0])
			}
			return nil
		},
	}
}

// editorModel is the bubbletea model of the editor.
type editorModel struct {
	sess   *session.Session
	path   string
	nodes  []graph.Node
	cursor int
	height int
	offset int

	status      string
	statusError bool
	confirmQuit bool
}

// newEditorModel loads path into a session. A missing file gives an empty
// document.
func newEditorModel(path string) (editorModel, error) {
	sess := session.New()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return editorModel{}, err
	default:
		if err := sess.Load(data); err != nil {
			return editorModel{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	m := editorModel{sess: sess, path: path, height: 15}
	m.refresh()
	m.selectCursor()
	return m, nil
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-16, 5)
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key != "q" && key != "esc" {
			m.confirmQuit = false
		}
		switch key {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			if m.sess.Modified() && !m.confirmQuit {
				m.confirmQuit = true
				m.setStatus("Unsaved changes. Press q again to quit, w to write.", true)
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.selectCursor()
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
			}
			m.selectCursor()
		case "n":
			n := m.sess.AddNode()
			m.refresh()
			m.cursor = m.indexOf(n.ID)
			m.setStatus("Added "+n.FullName(), false)
		case "x", "delete":
			m.deleteSelected()
		case "+", "=":
			m.adjustLoad(rpsStep)
		case "-":
			m.adjustLoad(-rpsStep)
		case "w":
			m.write()
		}
	}
	m.scroll()
	return m, nil
}

func (m *editorModel) deleteSelected() {
	n, ok := m.sess.Selected()
	if !ok {
		m.setStatus("Nothing selected", true)
		return
	}
	if err := m.sess.DeleteNode(n.ID); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.refresh()
	if m.cursor >= len(m.nodes) {
		m.cursor = len(m.nodes) - 1
	}
	m.selectCursor()
	m.setStatus("Deleted "+n.FullName(), false)
}

// adjustLoad changes the selected method's requests per second by delta.
// Dropping to zero or below removes it as an entry point.
func (m *editorModel) adjustLoad(delta float64) {
	n, ok := m.sess.Selected()
	if !ok {
		m.setStatus("Nothing selected", true)
		return
	}
	var cur float64
	if n.RequestsPerSecond != nil {
		cur = *n.RequestsPerSecond
	}
	next := cur + delta

	var p graph.Patch
	if next > 0 {
		p.RequestsPerSecond = &next
	} else if n.RequestsPerSecond != nil {
		p.ClearRequestsPerSecond = true
	} else {
		return
	}
	if _, err := m.sess.Update(n.ID, p); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.refresh()
	if next > 0 {
		m.setStatus(fmt.Sprintf("%s: %s rps", n.FullName(), formatFloat(next)), false)
	} else {
		m.setStatus(n.FullName()+" is no longer an entry point", false)
	}
}

func (m *editorModel) write() {
	data, _, err := m.sess.Save()
	if err == nil {
		err = os.WriteFile(m.path, data, 0o644)
	}
	if err != nil {
		m.setStatus("Write failed: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Wrote %s (%d bytes)", m.path, len(data)), false)
}

func (m *editorModel) refresh() {
	m.nodes = m.sess.Graph().Nodes()
}

func (m *editorModel) selectCursor() {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		m.cursor = max(0, min(m.cursor, len(m.nodes)-1))
		if len(m.nodes) == 0 {
			_ = m.sess.Select("")
			return
		}
	}
	_ = m.sess.Select(m.nodes[m.cursor].ID)
}

func (m *editorModel) indexOf(id string) int {
	for i, n := range m.nodes {
		if n.ID == id {
			return i
		}
	}
	return 0
}

func (m *editorModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *editorModel) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusError = isErr
}

func (m editorModel) View() string {
	var b strings.Builder

	title := m.path
	if m.sess.Modified() {
		title += " [modified]"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ select  n new  x delete  +/- load  w write  q quit"))
	b.WriteString("\n\n")

	if len(m.nodes) == 0 {
		b.WriteString(StyleDim.Render("  no methods, press n to add one"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		line := fmt.Sprintf("%-4s %-32s %s", n.ID, n.FullName(), categoryLabel(classify.Classify(n)))
		if n.RequestsPerSecond != nil {
			line += StyleDim.Render("  " + formatFloat(*n.RequestsPerSecond) + " rps")
		}
		if i == m.cursor {
			b.WriteString(editSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(editNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if n, ok := m.sess.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(editPanelStyle.Render(m.detail(n)))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusError {
			b.WriteString(StyleWarning.Render(m.status))
		} else {
			b.WriteString(StyleDim.Render(m.status))
		}
	}
	return b.String()
}

// detail describes the selected node.
func (m editorModel) detail(n graph.Node) string {
	port := "default"
	if n.Port != nil {
		port = strconv.Itoa(*n.Port)
	}
	calls := "none"
	if len(n.Calls) > 0 {
		calls = strings.Join(n.Calls, ", ")
	}
	lines := []string{
		StyleTitle.Render(n.FullName()),
		"port     " + port,
		"latency  " + formatDistribution(n.Latency),
		"errors   " + formatDistribution(n.ErrorRate),
		"calls    " + calls,
	}
	if missing := m.sess.Graph().Unresolved(n.ID); len(missing) > 0 {
		lines = append(lines, StyleWarning.Render("missing  "+strings.Join(missing, ", ")))
	}
	return strings.Join(lines, "\n")
}

func formatDistribution(d spec.Distribution) string {
	if len(d.Parameters) == 0 {
		return d.Type
	}
	parts := make([]string, 0, len(d.Parameters))
	for _, name := range slices.Sorted(maps.Keys(d.Parameters)) {
		parts = append(parts, name+"="+formatFloat(d.Parameters[name]))
	}
	return d.Type + "(" + strings.Join(parts, ", ") + ")"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
