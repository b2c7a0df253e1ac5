package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spellchain/pkg/observability"
)

// logHooks reports chain and HTTP events through the CLI logger.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnSelect(_ context.Context, nodeID, optionID string, grew bool) {
	if grew {
		h.logger.Debug("chain grew", "after", nodeID, "option", optionID)
	}
}

func (h *logHooks) OnDeleteStart(_ context.Context, nodeID, mode string, count int) {
	h.logger.Debug("deleting", "node", nodeID, "mode", mode, "blocks", count)
}

func (h *logHooks) OnDeleteComplete(_ context.Context, mode string, removed []string, edges int) {
	h.logger.Debug("deleted", "mode", mode, "removed", removed, "edges", edges)
}

func (h *logHooks) OnRejected(_ context.Context, op, nodeID string, err error) {
	h.logger.Warn("rejected", "op", op, "node", nodeID, "err", err)
}

func (h *logHooks) OnRequest(_ context.Context, method, _, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, _, path string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "path", path, "status", status, "took", d.Round(time.Microsecond))
}

func (h *logHooks) OnError(_ context.Context, method, _, path string, err error) {
	h.logger.Error("request failed", "method", method, "path", path, "err", err)
}

var (
	_ observability.ChainHooks = (*logHooks)(nil)
	_ observability.HTTPHooks  = (*logHooks)(nil)
)
