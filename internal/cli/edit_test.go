package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/meshgraph/pkg/io"
)

func press(t *testing.T, m editorModel, keys ...string) editorModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(editorModel)
	}
	return m
}

func openEditor(t *testing.T) (editorModel, string) {
	t.Helper()
	path := writeFile(t, t.TempDir(), "checkout.json", checkoutDoc)
	m, err := newEditorModel(path)
	if err != nil {
		t.Fatalf("newEditorModel() error: %v", err)
	}
	return m, path
}

func TestEditorNavigation(t *testing.T) {
	m, _ := openEditor(t)
	if n, ok := m.sess.Selected(); !ok || n.FullName() != "Gateway.checkout" {
		t.Fatalf("first method should be selected, got %v %v", n.FullName(), ok)
	}

	m = press(t, m, "down")
	if n, _ := m.sess.Selected(); n.FullName() != "Orders.create" {
		t.Errorf("down should select Orders.create, got %s", n.FullName())
	}
	m = press(t, m, "down", "down")
	if m.cursor != 1 {
		t.Errorf("cursor should stop at the last method, got %d", m.cursor)
	}
	m = press(t, m, "k", "k")
	if m.cursor != 0 {
		t.Errorf("cursor should stop at the first method, got %d", m.cursor)
	}
	if !strings.Contains(m.View(), "Gateway.checkout") {
		t.Error("view should list the methods")
	}
}

func TestEditorAddDeleteAndLoad(t *testing.T) {
	m, _ := openEditor(t)

	m = press(t, m, "n")
	if len(m.nodes) != 3 {
		t.Fatalf("n should add a method, have %d", len(m.nodes))
	}
	added, ok := m.sess.Selected()
	if !ok || m.nodes[m.cursor].ID != added.ID {
		t.Fatal("the new method should be selected")
	}

	m = press(t, m, "+", "+")
	if n, _ := m.sess.Selected(); n.RequestsPerSecond == nil || *n.RequestsPerSecond != 2*rpsStep {
		t.Errorf("two + presses should give %d rps, got %v", 2*rpsStep, n.RequestsPerSecond)
	}
	m = press(t, m, "-", "-")
	if n, _ := m.sess.Selected(); n.RequestsPerSecond != nil {
		t.Errorf("lowering to zero should clear the entry point, got %v", *n.RequestsPerSecond)
	}

	m = press(t, m, "x")
	if len(m.nodes) != 2 {
		t.Errorf("x should delete the selected method, have %d", len(m.nodes))
	}
	if _, ok := m.sess.Selected(); !ok {
		t.Error("deleting should move the selection to a remaining method")
	}
	if !m.sess.Modified() {
		t.Error("session should be marked modified")
	}
}

func TestEditorWrite(t *testing.T) {
	m, path := openEditor(t)
	m = press(t, m, "down", "+", "w")
	if m.sess.Modified() || m.statusError {
		t.Fatalf("w should save cleanly, status %q", m.status)
	}

	g, err := io.ImportJSON(path)
	if err != nil {
		t.Fatalf("re-import written file: %v", err)
	}
	n, ok := g.Lookup("Orders.create")
	if !ok || n.RequestsPerSecond == nil || *n.RequestsPerSecond != rpsStep {
		t.Errorf("Orders.create should be an entry point at %d rps after write", rpsStep)
	}
}

func TestEditorQuitConfirm(t *testing.T) {
	m, _ := openEditor(t)

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q without changes should quit")
	}

	m = press(t, m, "n", "q")
	if !m.confirmQuit {
		t.Fatal("q with unsaved changes should ask for confirmation")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("second q should quit")
	}
}

func TestEditorNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")
	m, err := newEditorModel(path)
	if err != nil {
		t.Fatalf("newEditorModel() error: %v", err)
	}
	if len(m.nodes) != 0 {
		t.Fatal("missing file should open an empty document")
	}
	m = press(t, m, "x")
	if !m.statusError {
		t.Error("deleting with nothing selected should report an error")
	}
	m = press(t, m, "n", "w")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("w should create the file: %v", err)
	}
}

func TestEditorRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"services": 3}`)
	if _, err := newEditorModel(path); err == nil {
		t.Error("newEditorModel should fail on a malformed document")
	}
}
