// Package cli implements the spellchain command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spellchain/internal/config"
	"github.com/matzehuels/spellchain/pkg/buildinfo"
	"github.com/matzehuels/spellchain/pkg/chain"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "spellchain"

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

	// ConfigPath is bound to the --config flag. Empty selects the default
	// location.
	ConfigPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Spellchain assembles spells from chained blocks",
		Long:         `Spellchain builds a spell as a chain of typed blocks (Target → Magic School → Projectile Form), interactively in the terminal, from a scripted action list, or over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/spellchain/config.toml)")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.optionsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Builder Factory
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// newBuilder creates a chain builder from the configuration, driven by sched.
func (c *CLI) newBuilder(ctx context.Context, sched chain.Scheduler) (*chain.Builder, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	opts := cfg.ChainOptions()
	opts.Scheduler = sched
	opts.Logger = loggerFromContext(ctx)
	opts.Context = ctx
	return chain.New(opts), nil
}
