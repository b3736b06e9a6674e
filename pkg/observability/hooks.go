// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about packing runs, asynchronous jobs, and job-store
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the engine dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPackerHooks(&myPackerHooks{})
//	    observability.SetJobHooks(&myJobHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Packer().OnPackStart(ctx, partCount, mode)
//	// ... pack ...
//	observability.Packer().OnPackComplete(ctx, placed, failed, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Packer Hooks
// =============================================================================

// PackerHooks receives events from the nesting engine.
type PackerHooks interface {
	// OnPackStart records the beginning of a packing run.
	OnPackStart(ctx context.Context, partCount int, mode string)

	// OnSheetOpened records a new sheet being opened.
	OnSheetOpened(ctx context.Context, index int)

	// OnPlacement records one committed placement.
	OnPlacement(ctx context.Context, partID string, sheetIndex int, rotation float64)

	// OnPackComplete records the end of a packing run.
	OnPackComplete(ctx context.Context, placed, failed int, duration time.Duration, err error)
}

// =============================================================================
// Job Hooks
// =============================================================================

// JobHooks receives events from the asynchronous job controller.
type JobHooks interface {
	// OnJobStart records a job beginning execution.
	OnJobStart(ctx context.Context, jobID string, complexity float64)

	// OnJobComplete records a job reaching a terminal state.
	OnJobComplete(ctx context.Context, jobID, status string, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from job-store operations.
type StoreHooks interface {
	// OnStoreHit records a successful job lookup.
	OnStoreHit(ctx context.Context, jobID string)

	// OnStoreMiss records a lookup for an unknown or expired job.
	OnStoreMiss(ctx context.Context, jobID string)

	// OnStoreSet records a job record write.
	OnStoreSet(ctx context.Context, jobID string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPackerHooks is a no-op implementation of PackerHooks.
type NoopPackerHooks struct{}

func (NoopPackerHooks) OnPackStart(context.Context, int, string)                      {}
func (NoopPackerHooks) OnSheetOpened(context.Context, int)                            {}
func (NoopPackerHooks) OnPlacement(context.Context, string, int, float64)             {}
func (NoopPackerHooks) OnPackComplete(context.Context, int, int, time.Duration, error) {}

// NoopJobHooks is a no-op implementation of JobHooks.
type NoopJobHooks struct{}

func (NoopJobHooks) OnJobStart(context.Context, string, float64)                        {}
func (NoopJobHooks) OnJobComplete(context.Context, string, string, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreHit(context.Context, string)       {}
func (NoopStoreHooks) OnStoreMiss(context.Context, string)      {}
func (NoopStoreHooks) OnStoreSet(context.Context, string, int)  {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	packerHooks PackerHooks = NoopPackerHooks{}
	jobHooks    JobHooks    = NoopJobHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetPackerHooks registers custom packer hooks.
// This should be called once at application startup before any packing runs.
func SetPackerHooks(h PackerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		packerHooks = h
	}
}

// SetJobHooks registers custom job hooks.
// This should be called once at application startup before any jobs are submitted.
func SetJobHooks(h JobHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		jobHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Packer returns the registered packer hooks.
func Packer() PackerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return packerHooks
}

// Job returns the registered job hooks.
func Job() JobHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return jobHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	packerHooks = NoopPackerHooks{}
	jobHooks = NoopJobHooks{}
	storeHooks = NoopStoreHooks{}
}
