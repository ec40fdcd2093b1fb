package asset

// Handle is an opaque, copyable reference to a slot-allocated resource.
// A zero Handle is never valid: live handles carry a non-zero generation
// so stale references to reclaimed slots are detectable.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether the handle is the zero value.
//
// Returns:
//   - bool: true if the handle has never been assigned.
func (h Handle) IsZero() bool {
	return h.Generation == 0
}

// MeshHandle references a mesh owned by the asset manager.
type MeshHandle struct{ Handle }

// TextureHandle references a GPU texture owned by the asset manager.
type TextureHandle struct{ Handle }

// SamplerHandle references a GPU sampler owned by the asset manager.
type SamplerHandle struct{ Handle }

// MaterialHandle references a material slot in the shared material buffer.
// Unlike arena-backed handles its index is also the slot index used for
// dynamic-offset material lookup at draw time.
type MaterialHandle struct {
	Slot uint32
}

type arenaEntry[T any] struct {
	value      T
	generation uint32
	live       bool
}

// arena is a generation-tagged slot map. Entries are stored densely;
// released slots go on a free list and bump their generation so handles
// into the old occupant stop resolving.
type arena[T any] struct {
	entries []arenaEntry[T]
	free    []uint32
}

// Insert stores a value and returns its handle.
func (a *arena[T]) Insert(value T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		e := &a.entries[idx]
		e.value = value
		e.generation++
		e.live = true
		return Handle{Index: idx, Generation: e.generation}
	}
	a.entries = append(a.entries, arenaEntry[T]{value: value, generation: 1, live: true})
	return Handle{Index: uint32(len(a.entries) - 1), Generation: 1}
}

// Get resolves a handle to its value. The second return is false for the
// zero handle, an out-of-range index, a released slot, or a stale generation.
func (a *arena[T]) Get(h Handle) (T, bool) {
	var zero T
	if h.IsZero() || int(h.Index) >= len(a.entries) {
		return zero, false
	}
	e := &a.entries[h.Index]
	if !e.live || e.generation != h.Generation {
		return zero, false
	}
	return e.value, true
}

// Update replaces the value behind a live handle.
func (a *arena[T]) Update(h Handle, value T) bool {
	if h.IsZero() || int(h.Index) >= len(a.entries) {
		return false
	}
	e := &a.entries[h.Index]
	if !e.live || e.generation != h.Generation {
		return false
	}
	e.value = value
	return true
}

// Remove releases the slot behind a live handle, returning its value so the
// caller can dispose of any GPU objects it owns.
func (a *arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if h.IsZero() || int(h.Index) >= len(a.entries) {
		return zero, false
	}
	e := &a.entries[h.Index]
	if !e.live || e.generation != h.Generation {
		return zero, false
	}
	value := e.value
	e.value = zero
	e.live = false
	a.free = append(a.free, h.Index)
	return value, true
}

// Len returns the number of live entries.
func (a *arena[T]) Len() int {
	return len(a.entries) - len(a.free)
}
