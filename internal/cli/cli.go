// Package cli implements the meshgraph command-line interface.
//
// # Commands
//
//   - inspect: print the nodes of a simulation document with their categories
//   - validate: lint a simulation document, exiting non-zero on errors
//   - convert: write JSON, simulator YAML, compose, DOT, SVG, PNG or graph snapshots
//   - edit: interactive terminal editor for a simulation document
//   - serve: run the HTTP API
//   - docs: manage stored documents
//   - config: show the configuration file and its effective values
//
// All commands accept --verbose (-v) for debug logging. The logger travels
// through the command context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
	"github.com/matzehuels/meshgraph/pkg/store"
)

// appName is used for config, data and cache directories.
const appName = "meshgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	// configPath overrides the config file location (--config).
	configPath string
}

// New creates a CLI with the default configuration and a logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// newRunner creates a pipeline runner. Renders are cached on disk unless
// noCache is set or no cache directory is available.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newRenderCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, c.Logger), nil
}

func newRenderCache(noCache bool) (store.Store, error) {
	if noCache {
		return store.NewNullStore(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return store.NewNullStore(), nil
	}
	return store.NewFileStore(dir)
}

// openRepository opens the configured document store.
func (c *CLI) openRepository(ctx context.Context) (*session.Repository, store.Store, error) {
	cfg, err := c.Config.storeConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	ttl, err := c.Config.Store.ttl()
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	c.Logger.Debug("opened store", "backend", cfg.Backend, "namespace", cfg.Namespace)
	return session.NewRepository(s, ttl), s, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the render cache directory (~/.cache/meshgraph/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// dataDir returns the document directory (~/.local/share/meshgraph/).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// configDir returns the config directory (~/.config/meshgraph/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats splits a comma-separated format list, defaulting to def.
func parseFormats(s, def string) []string {
	if s == "" {
		return []string{def}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath derives the output path prefix. Without an output it strips the
// extension from the input; a known format extension on output is dropped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	longest := ""
	for _, f := range pipeline.Formats {
		if ext := pipeline.Extension(f); strings.HasSuffix(output, ext) && len(ext) > len(longest) {
			longest = ext
		}
	}
	return strings.TrimSuffix(output, longest)
}

// outputPath returns where format is written. A single format with an
// explicit output goes exactly there.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + pipeline.Extension(format)
}
