package voxel

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/toolpath"
)

// ErrBudgetExceeded is returned when a requested grid would allocate more
// than the caller's memory budget allows.
var ErrBudgetExceeded = errors.New("voxel: grid allocation exceeds memory budget")

// Compile-time interface check.
var _ Grid = (*DenseGrid)(nil)

// DenseGrid stores resolution³ float32 distance samples in one flat
// row-major array. It is the construction backend: the rasterizer mutates
// it in place, and it can be discarded or converted to a SparseGrid once
// extraction is done.
type DenseGrid struct {
	resolution int
	bounds     toolpath.AABB
	voxelSize  float32
	data       []float32
}

// NewDense allocates a grid of resolution³ cells covering bounds, every
// cell initialized to FarOutside. The voxel size is uniform on all axes,
// derived from the largest bounds dimension. budgetBytes caps the
// allocation; pass 0 for no cap. Exceeding the budget returns
// ErrBudgetExceeded before any allocation happens.
func NewDense(resolution int, bounds toolpath.AABB, budgetBytes int) (*DenseGrid, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("voxel: resolution %d too small", resolution)
	}

	total := resolution * resolution * resolution
	bytes := total * 4
	if budgetBytes > 0 && bytes > budgetBytes {
		return nil, fmt.Errorf("%w: %d^3 grid needs %d bytes, budget is %d",
			ErrBudgetExceeded, resolution, bytes, budgetBytes)
	}

	g := &DenseGrid{
		resolution: resolution,
		bounds:     bounds,
		voxelSize:  bounds.MaxDimension() / float32(resolution-1),
		data:       make([]float32, total),
	}
	g.Fill(FarOutside)
	return g, nil
}

// Resolution returns the cell count per axis.
func (g *DenseGrid) Resolution() int { return g.resolution }

// Bounds returns the world-space box the grid covers.
func (g *DenseGrid) Bounds() toolpath.AABB { return g.bounds }

// VoxelSize returns the world-space edge length of one cell.
func (g *DenseGrid) VoxelSize() float32 { return g.voxelSize }

// MemoryUsage returns the backing array size in bytes.
func (g *DenseGrid) MemoryUsage() int { return len(g.data) * 4 }

func (g *DenseGrid) index(x, y, z int) int {
	return z*g.resolution*g.resolution + y*g.resolution + x
}

func (g *DenseGrid) inBounds(x, y, z int) bool {
	return x >= 0 && x < g.resolution && y >= 0 && y < g.resolution && z >= 0 && z < g.resolution
}

// Get returns the value at integer cell coordinates, or FarOutside for
// out-of-range coordinates.
func (g *DenseGrid) Get(x, y, z int) float32 {
	if !g.inBounds(x, y, z) {
		return FarOutside
	}
	return g.data[g.index(x, y, z)]
}

// Set stores value at the given cell. Out-of-range coordinates are a
// no-op rather than a fault.
func (g *DenseGrid) Set(x, y, z int, value float32) {
	if g.inBounds(x, y, z) {
		g.data[g.index(x, y, z)] = value
	}
}

// Fill resets every cell to value.
func (g *DenseGrid) Fill(value float32) {
	for i := range g.data {
		g.data[i] = value
	}
}

// Sample returns the trilinearly interpolated value at a world position.
// The interpolation lattice is clamped to the valid cell range so edge
// queries degrade to the boundary value.
func (g *DenseGrid) Sample(pos mgl32.Vec3) float32 {
	vp := pos.Sub(g.bounds.Min).Mul(1 / g.voxelSize)

	x0 := int(math32.Floor(vp.X()))
	y0 := int(math32.Floor(vp.Y()))
	z0 := int(math32.Floor(vp.Z()))

	fx := vp.X() - float32(x0)
	fy := vp.Y() - float32(y0)
	fz := vp.Z() - float32(z0)

	x1 := min(x0+1, g.resolution-1)
	y1 := min(y0+1, g.resolution-1)
	z1 := min(z0+1, g.resolution-1)
	x0 = max(x0, 0)
	y0 = max(y0, 0)
	z0 = max(z0, 0)

	return lerp3(
		g.Get(x0, y0, z0), g.Get(x1, y0, z0),
		g.Get(x0, y1, z0), g.Get(x1, y1, z0),
		g.Get(x0, y0, z1), g.Get(x1, y0, z1),
		g.Get(x0, y1, z1), g.Get(x1, y1, z1),
		fx, fy, fz)
}

// WorldToVoxel maps a world position to the nearest integer cell
// coordinates. The result may be out of range; Get and Set tolerate that.
func (g *DenseGrid) WorldToVoxel(pos mgl32.Vec3) (int, int, int) {
	vp := pos.Sub(g.bounds.Min).Mul(1 / g.voxelSize)
	return int(math32.Round(vp.X())), int(math32.Round(vp.Y())), int(math32.Round(vp.Z()))
}

// VoxelToWorld maps integer cell coordinates to the cell's lower corner in
// world space. No half-voxel offset: the surface extractor samples grid
// corners at exactly these positions.
func (g *DenseGrid) VoxelToWorld(x, y, z int) mgl32.Vec3 {
	return g.bounds.Min.Add(mgl32.Vec3{
		float32(x) * g.voxelSize,
		float32(y) * g.voxelSize,
		float32(z) * g.voxelSize,
	})
}

// lerp3 trilinearly interpolates the 8 corner values of a cell.
func lerp3(v000, v100, v010, v110, v001, v101, v011, v111, fx, fy, fz float32) float32 {
	v00 := v000*(1-fx) + v100*fx
	v01 := v001*(1-fx) + v101*fx
	v10 := v010*(1-fx) + v110*fx
	v11 := v011*(1-fx) + v111*fx

	v0 := v00*(1-fy) + v10*fy
	v1 := v01*(1-fy) + v11*fy

	return v0*(1-fz) + v1*fz
}
