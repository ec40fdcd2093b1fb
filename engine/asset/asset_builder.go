package asset

import "github.com/Carmen-Shannon/vega-go/engine/loader"

// ManagerBuilderOption is a function that modifies the manager configuration.
type ManagerBuilderOption func(*manager)

// WithLoader overrides the loader the manager imports assets through.
//
// Parameters:
//   - l: the loader to use.
//
// Returns:
//   - ManagerBuilderOption: the option function.
func WithLoader(l loader.Loader) ManagerBuilderOption {
	return func(m *manager) {
		m.loader = l
	}
}

// WithPreloadWorkers sets the worker count for the preload pool.
//
// Parameters:
//   - workers: number of concurrent import workers; values below 1 are ignored.
//
// Returns:
//   - ManagerBuilderOption: the option function.
func WithPreloadWorkers(workers int) ManagerBuilderOption {
	return func(m *manager) {
		if workers >= 1 {
			m.preloadWorkers = workers
		}
	}
}
