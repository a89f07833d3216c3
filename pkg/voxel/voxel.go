// Package voxel provides the volumetric storage backends for signed
// distance fields: a flat dense grid used during construction and a
// compressed sparse grid for long-lived retention. Both expose the same
// read contract so downstream surface extraction does not care which
// backend it is walking.
package voxel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/toolpath"
)

// FarOutside is the sentinel stored in untouched cells and returned for
// out-of-range lookups. Any real distance value is smaller.
const FarOutside = math32.MaxFloat32

// Grid is the read contract shared by the dense and sparse backends.
// Negative values are inside the solid, positive outside, zero on the
// surface.
type Grid interface {
	// Resolution returns the cell count per axis.
	Resolution() int

	// Bounds returns the world-space box the grid covers.
	Bounds() toolpath.AABB

	// VoxelSize returns the world-space edge length of one cell.
	VoxelSize() float32

	// Get returns the stored value at integer cell coordinates, or
	// FarOutside when any coordinate falls outside [0, resolution).
	Get(x, y, z int) float32

	// Sample returns the trilinearly interpolated value at a world
	// position. Queries at or past the grid edge clamp to the boundary
	// cells rather than reading out of range.
	Sample(pos mgl32.Vec3) float32

	// MemoryUsage returns the backing storage size in bytes.
	MemoryUsage() int
}
