package loader

// LoaderBuilderOption is a function that modifies the loader configuration.
type LoaderBuilderOption func(*loader)

// WithBackend overrides the backend used by the loader. Primarily useful for
// swapping in an in-memory backend in tests.
//
// Parameters:
//   - backend: the backend to use.
//
// Returns:
//   - LoaderBuilderOption: the option function.
func WithBackend(backend loaderBackend) LoaderBuilderOption {
	return func(l *loader) {
		l.backend = backend
	}
}
