package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spellchain/pkg/chain"
	"github.com/matzehuels/spellchain/pkg/graph"
)

// buildCommand runs the interactive builder.
func (c *CLI) buildCommand() *cobra.Command {
	var output, logFile string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble a spell interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// The terminal belongs to the UI while it runs.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			c.Logger.SetOutput(logOut)
			defer c.Logger.SetOutput(cmd.ErrOrStderr())

			tl := chain.NewTimeline()
			b, err := c.newBuilder(ctx, tl)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewBuilderModel(b, tl), tea.WithAltScreen(), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run builder: %w", err)
			}
			// Deletions still in flight when the user quits are completed.
			if m, ok := final.(BuilderModel); ok {
				m.Clock.Flush()
			}
			return reportBuild(cmd.OutOrStdout(), b, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final chain as JSON to this file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file while the builder runs")
	return cmd
}

func reportBuild(w io.Writer, b *chain.Builder, output string) error {
	sp, complete := b.Spell()
	if complete {
		printSuccess(w, "Spell ready: %s", StyleHighlight.Render(sp.Name()))
	} else {
		printInfo(w, "Spell incomplete")
	}
	for _, e := range b.Summary() {
		printKeyValue(w, e.Stage.Title(), e.Option.String())
	}
	printStats(w, len(b.Nodes()), len(b.Edges()), complete)

	if output == "" {
		return nil
	}
	if err := graph.WriteChainFile(b, output); err != nil {
		return err
	}
	printFile(w, output)
	return nil
}
