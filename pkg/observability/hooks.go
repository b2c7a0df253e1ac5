// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about chain mutations and HTTP API traffic.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetChainHooks(&myChainHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Chain().OnSelect(ctx, "target-1", "enemy", true)
//	observability.Chain().OnDeleteStart(ctx, "magicSchool-1", "cascade", 2)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Chain Hooks
// =============================================================================

// ChainHooks receives events from the chain reconciler.
type ChainHooks interface {
	// OnSelect records a selection. grew is true when the chain gained a node.
	OnSelect(ctx context.Context, nodeID, optionID string, grew bool)

	// OnDeleteStart records the start of a deferred deletion of count nodes.
	OnDeleteStart(ctx context.Context, nodeID, mode string, count int)

	// OnDeleteComplete records the structural removal of nodes.
	OnDeleteComplete(ctx context.Context, mode string, removed []string, edges int)

	// OnRejected records an operation refused because it violated the chain
	// contract.
	OnRejected(ctx context.Context, op, nodeID string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a request that failed with an error.
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopChainHooks is a no-op implementation of ChainHooks.
type NoopChainHooks struct{}

func (NoopChainHooks) OnSelect(context.Context, string, string, bool)          {}
func (NoopChainHooks) OnDeleteStart(context.Context, string, string, int)      {}
func (NoopChainHooks) OnDeleteComplete(context.Context, string, []string, int) {}
func (NoopChainHooks) OnRejected(context.Context, string, string, error)       {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	chainHooks ChainHooks = NoopChainHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetChainHooks registers custom chain hooks.
// This should be called once at application startup before any builder is created.
func SetChainHooks(h ChainHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		chainHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Chain returns the registered chain hooks.
func Chain() ChainHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return chainHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	chainHooks = NoopChainHooks{}
	httpHooks = NoopHTTPHooks{}
}
