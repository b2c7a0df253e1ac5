package cli

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/matzehuels/spellchain/pkg/chain"
	errs "github.com/matzehuels/spellchain/pkg/errors"
)

// Script verbs.
const (
	verbSelect  = "select"
	verbDelete  = "delete"
	verbCascade = "cascade"
	verbWait    = "wait"
)

// action is one scripted user interaction.
type action struct {
	verb   string
	node   string
	option string
	wait   time.Duration
	line   int
}

func (a action) String() string {
	switch a.verb {
	case verbSelect:
		return a.verb + ":" + a.node + "=" + a.option
	case verbWait:
		return a.verb + ":" + a.wait.String()
	}
	return a.verb + ":" + a.node
}

// parseAction parses one of:
//
//	select:<node>=<option>
//	delete:<node>
//	cascade:<node>
//	wait:<duration>
func parseAction(s string) (action, error) {
	verb, arg, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || arg == "" {
		return action{}, errs.New(errs.ErrCodeInvalidFormat, "action %q: want <verb>:<argument>", s)
	}

	a := action{verb: verb}
	switch verb {
	case verbSelect:
		node, opt, ok := strings.Cut(arg, "=")
		if !ok {
			return action{}, errs.New(errs.ErrCodeInvalidFormat, "action %q: want select:<node>=<option>", s)
		}
		if err := errs.ValidateOptionID(opt); err != nil {
			return action{}, err
		}
		a.node, a.option = node, opt
	case verbDelete, verbCascade:
		a.node = arg
	case verbWait:
		d, err := time.ParseDuration(arg)
		if err != nil || d < 0 {
			return action{}, errs.New(errs.ErrCodeInvalidFormat, "action %q: invalid duration", s)
		}
		a.wait = d
		return a, nil
	default:
		return action{}, errs.New(errs.ErrCodeInvalidFormat, "action %q: unknown verb %q", s, verb)
	}

	if err := errs.ValidateNodeID(a.node); err != nil {
		return action{}, err
	}
	return a, nil
}

// parseScript reads one action per line. Blank lines and lines starting
// with '#' are skipped.
func parseScript(r io.Reader) ([]action, error) {
	var actions []action
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, err := parseAction(line)
		if err != nil {
			return nil, errs.Wrap(errs.GetCode(err), err, "line %d", n)
		}
		a.line = n
		actions = append(actions, a)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read script")
	}
	return actions, nil
}

// apply runs the action against b. Waits advance tl.
func (a action) apply(b *chain.Builder, tl *chain.Timeline) error {
	switch a.verb {
	case verbSelect:
		return b.SelectByID(a.node, a.option)
	case verbDelete:
		return b.DeleteSingle(a.node)
	case verbCascade:
		return b.DeleteCascade(a.node)
	case verbWait:
		tl.Advance(a.wait)
	}
	return nil
}

// replayResult summarizes a replay.
type replayResult struct {
	Applied  int
	Rejected []error
}

// replay applies actions in order. With keepGoing, rejected actions are
// collected and skipped; otherwise the first rejection stops the replay.
func replay(b *chain.Builder, tl *chain.Timeline, actions []action, keepGoing bool) (replayResult, error) {
	var res replayResult
	for _, a := range actions {
		if err := a.apply(b, tl); err != nil {
			wrapped := errs.Wrap(errs.GetCode(err), err, "%s", a)
			if !keepGoing {
				return res, wrapped
			}
			res.Rejected = append(res.Rejected, wrapped)
			continue
		}
		res.Applied++
	}
	return res, nil
}
