package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spellchain/pkg/chain"
	errs "github.com/matzehuels/spellchain/pkg/errors"
	"github.com/matzehuels/spellchain/pkg/graph"
	"github.com/matzehuels/spellchain/pkg/render/nodelink"
)

// Output formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	script    string // script file, "-" for stdin; actions may also be given as args
	output    string // output file path; stdout when empty
	format    string // json, dot or svg
	detailed  bool   // show node ids and positions in diagrams
	noFlush   bool   // snapshot with deferred deletions still pending
	keepGoing bool   // skip rejected actions instead of failing
}

// renderCommand replays scripted actions against a fresh chain and writes
// the resulting snapshot.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: formatJSON}

	cmd := &cobra.Command{
		Use:   "render [action...]",
		Short: "Replay actions against a new chain and render the result",
		Long: `Replay actions against a new chain and render the result.

Actions, one per argument or per line of --script:

  select:<node>=<option>   choose an option, e.g. select:target-1=enemy
  delete:<node>            delete a single block
  cascade:<node>           delete a block and every later block
  wait:<duration>          let deferred deletions progress, e.g. wait:150ms

Pending deletions are completed before rendering unless --no-flush is set.`,
		Example: `  spellchain render select:target-1=enemy select:magicSchool-1=fire_school
  spellchain render --script spell.txt --format svg -o spell.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := loadActions(cmd.InOrStdin(), opts.script, args)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), actions, opts)
		},
	}

	cmd.Flags().StringVar(&opts.script, "script", "", "read actions from file (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, dot, svg")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node ids and positions in diagrams")
	cmd.Flags().BoolVar(&opts.noFlush, "no-flush", false, "render with pending deletions still in progress")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "skip rejected actions instead of failing")

	return cmd
}

func loadActions(stdin io.Reader, script string, args []string) ([]action, error) {
	var actions []action
	switch script {
	case "":
	case "-":
		parsed, err := parseScript(stdin)
		if err != nil {
			return nil, err
		}
		actions = parsed
	default:
		f, err := os.Open(script)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "open script")
		}
		defer f.Close()
		parsed, err := parseScript(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", script, err)
		}
		actions = parsed
	}

	for _, arg := range args {
		a, err := parseAction(arg)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (c *CLI) runRender(ctx context.Context, stdout, stderr io.Writer, actions []action, opts renderOpts) error {
	switch opts.format {
	case formatJSON, formatDOT, formatSVG:
	default:
		return errs.New(errs.ErrCodeUnsupported, "format %q (want %s)", opts.format, strings.Join([]string{formatJSON, formatDOT, formatSVG}, ", "))
	}

	logger := loggerFromContext(ctx)
	tl := chain.NewTimeline()
	b, err := c.newBuilder(ctx, tl)
	if err != nil {
		return err
	}

	res, err := replay(b, tl, actions, opts.keepGoing)
	if err != nil {
		return err
	}
	for _, rej := range res.Rejected {
		logger.Warn("skipped", "err", errs.UserMessage(rej))
	}
	if !opts.noFlush {
		fired := tl.Flush()
		logger.Debug("flushed deferred deletions", "callbacks", fired, "at", tl.Now())
	}
	if err := b.Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "chain invariant violated")
	}
	logger.Debug("replayed", "applied", res.Applied, "rejected", len(res.Rejected), "pending", tl.Pending())

	data, err := renderSnapshot(ctx, graph.FromBuilder(b), opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	_, complete := b.Spell()
	printSuccess(stderr, "Rendered %s", opts.format)
	printFile(stderr, opts.output)
	printStats(stderr, len(b.Nodes()), len(b.Edges()), complete)
	return nil
}

func renderSnapshot(ctx context.Context, g graph.Graph, opts renderOpts) ([]byte, error) {
	switch opts.format {
	case formatDOT:
		return []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed})), nil
	case formatSVG:
		prog := newProgress(loggerFromContext(ctx))
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed}))
		if err != nil {
			return nil, err
		}
		prog.done("Rendered svg")
		return svg, nil
	default:
		var buf bytes.Buffer
		if err := graph.WriteGraph(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
