package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v1.2.3"

	if got := String(); !strings.HasPrefix(got, "version: v1.2.3\n") {
		t.Errorf("String() = %q", got)
	}
	if got := Short(); got != "meshgraph v1.2.3" {
		t.Errorf("Short() = %q", got)
	}
	if got := Template(); !strings.Contains(got, "{{.Name}} version v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
}
