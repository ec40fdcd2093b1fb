package common

import (
	"math"
)

// AABB is an axis-aligned bounding box described by its component-wise minimum
// and maximum corners.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// EmptyAABB returns an inverted bounding box suitable as the identity for
// Extend/Merge: every point extends it, and merging it with another box yields
// that box unchanged.
//
// Returns:
//   - AABB: the inverted (empty) bounding box
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// AABBFromPoints computes the component-wise min/max bounds over the given points.
// An empty slice yields EmptyAABB.
//
// Parameters:
//   - points: the points to bound
//
// Returns:
//   - AABB: the smallest box containing every point
func AABBFromPoints(points [][3]float32) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box.Extend(p)
	}
	return box
}

// Extend grows the box to contain the given point.
//
// Parameters:
//   - p: the point to include
func (b *AABB) Extend(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Merge grows the box to contain another box. Merging an empty box is a
// no-op; its infinite corners must not leak into the result.
//
// Parameters:
//   - other: the box to include
func (b *AABB) Merge(other AABB) {
	if other.IsEmpty() {
		return
	}
	b.Extend(other.Min)
	b.Extend(other.Max)
}

// Center returns the midpoint of the box.
//
// Returns:
//   - [3]float32: the center point
func (b AABB) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5,
	}
}

// IsEmpty reports whether the box contains no points (min exceeds max on any axis).
//
// Returns:
//   - bool: true when the box is inverted/empty
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}
