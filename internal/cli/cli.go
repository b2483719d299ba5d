// Package cli implements the cargodeb command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cargodeb/cargodeb/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and file names.
	appName = "cargodeb"

	// configFileName is the per-crate override file looked up next to the
	// manifest when --config is not given.
	configFileName = "cargodeb.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cargodeb",
		Short:        "Cargodeb generates Debian packaging from Rust crates",
		Long:         `Cargodeb reads a crate's Cargo.toml, resolves its feature graph into a minimal set of Debian binary packages, and writes a complete debian/ directory ready for dh-cargo.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.packageCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Paths
// =============================================================================

// defaultConfigPath returns the override file next to the crate manifest.
// The file is optional; callers pass the path through to config.Load which
// treats a missing file as defaults.
func defaultConfigPath(crateDir string) string {
	return filepath.Join(crateDir, configFileName)
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
