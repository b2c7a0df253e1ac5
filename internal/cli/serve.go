package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spellchain/pkg/buildinfo"
	"github.com/matzehuels/spellchain/pkg/chain"
	errs "github.com/matzehuels/spellchain/pkg/errors"
	"github.com/matzehuels/spellchain/pkg/graph"
	"github.com/matzehuels/spellchain/pkg/observability"
	"github.com/matzehuels/spellchain/pkg/render/nodelink"
	"github.com/matzehuels/spellchain/pkg/stage"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 16
)

// serveCommand exposes one chain over a JSON HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a chain over a JSON HTTP API",
		Long: `Serve a single chain over HTTP.

Endpoints:
  GET  /api/version         build information
  GET  /api/block-options   option catalog
  GET  /api/chain           chain snapshot
  GET  /api/chain/dot       chain as Graphviz DOT
  POST /api/chain/select    {"node_id": "target-1", "option_id": "enemy"}
  POST /api/chain/delete    {"node_id": "magicSchool-1", "mode": "single|cascade"}
  POST /api/chain/reset     start over with a new chain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Listen
			}
			ctx := cmd.Context()
			srv, err := newServer(func(s chain.Scheduler) (*chain.Builder, error) {
				return c.newBuilder(ctx, s)
			})
			if err != nil {
				return err
			}
			defer srv.close()
			return runHTTP(ctx, listen, srv.routes(), cmd)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config listen)")
	return cmd
}

func runHTTP(ctx context.Context, addr string, h http.Handler, cmd *cobra.Command) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	printInfo(cmd.ErrOrStderr(), "Listening on %s", StyleHighlight.Render("http://"+addr))
	printNextStep(cmd.ErrOrStderr(), "Try", "curl http://"+addr+"/api/chain")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		loggerFromContext(ctx).Info("shutting down")
		return hs.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// Server
// =============================================================================

// builderFactory creates a builder driven by the given scheduler.
type builderFactory func(chain.Scheduler) (*chain.Builder, error)

// server owns one chain. mu serializes request handlers with deferred
// deletion callbacks, which the TimerScheduler runs under the same lock.
type server struct {
	mu      sync.Mutex
	sched   *chain.TimerScheduler
	builder *chain.Builder
	factory builderFactory
}

func newServer(factory builderFactory) (*server, error) {
	s := &server{factory: factory}
	s.sched = chain.NewTimerScheduler(&s.mu)
	b, err := factory(s.sched)
	if err != nil {
		return nil, err
	}
	s.builder = b
	return s, nil
}

func (s *server) close() { s.sched.Stop() }

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, buildinfo.Get())
		})
		api.Get("/block-options", s.handleBlockOptions)
		api.Route("/chain", func(cr chi.Router) {
			cr.Get("/", s.handleChain)
			cr.Get("/dot", s.handleDOT)
			cr.With(middleware.AllowContentType("application/json")).Post("/select", s.handleSelect)
			cr.With(middleware.AllowContentType("application/json")).Post("/delete", s.handleDelete)
			cr.Post("/reset", s.handleReset)
		})
	})
	return r
}

// instrument reports every request to the registered HTTP hooks.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.Host, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, status, time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

type selectRequest struct {
	NodeID   string `json:"node_id"`
	OptionID string `json:"option_id"`
}

type deleteRequest struct {
	NodeID string `json:"node_id"`
	Mode   string `json:"mode"`
}

type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

func (s *server) handleBlockOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stage.Catalog())
}

func (s *server) handleChain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *server) handleDOT(w http.ResponseWriter, r *http.Request) {
	detailed := r.URL.Query().Get("detailed") == "true"
	dot := nodelink.ToDOT(s.snapshot(), nodelink.Options{Detailed: detailed})
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := firstErr(errs.ValidateNodeID(req.NodeID), errs.ValidateOptionID(req.OptionID)); err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	err := s.builder.SelectByID(req.NodeID, req.OptionID)
	g := graph.FromBuilder(s.builder)
	s.mu.Unlock()

	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := errs.ValidateNodeID(req.NodeID); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Mode == "" {
		req.Mode = chain.ModeSingle
	}

	s.mu.Lock()
	var err error
	switch req.Mode {
	case chain.ModeSingle:
		err = s.builder.DeleteSingle(req.NodeID)
	case chain.ModeCascade:
		err = s.builder.DeleteCascade(req.NodeID)
	default:
		err = errs.New(errs.ErrCodeInvalidInput, "mode must be %q or %q", chain.ModeSingle, chain.ModeCascade)
	}
	g := graph.FromBuilder(s.builder)
	s.mu.Unlock()

	if err != nil {
		writeError(w, r, err)
		return
	}
	// Removal completes after the delete delay; the snapshot shows the
	// blocks flagged as deleting.
	writeJSON(w, http.StatusAccepted, g)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sched.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.factory(s.sched)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.builder = b
	writeJSON(w, http.StatusOK, graph.FromBuilder(b))
}

func (s *server) snapshot() graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return graph.FromBuilder(s.builder)
}

// =============================================================================
// Helpers
// =============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		observability.HTTP().OnError(r.Context(), r.Method, r.Host, r.URL.Path, err)
	}
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: errs.UserMessage(err)}})
}

func firstErr(errList ...error) error {
	for _, err := range errList {
		if err != nil {
			return err
		}
	}
	return nil
}
