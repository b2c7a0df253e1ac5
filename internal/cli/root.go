package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spellchain/pkg/observability"
)

// Execute runs the spellchain CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: the config file's log_level, info unless set (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext. Chain and HTTP events are logged through observability
// hooks installed here.
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if cmd.Name() != "completion" {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if level, err = cfg.Level(); err != nil {
				return err
			}
		}
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)

		hooks := newLogHooks(c.Logger)
		observability.SetChainHooks(hooks)
		observability.SetHTTPHooks(hooks)

		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	return root.ExecuteContext(ctx)
}
