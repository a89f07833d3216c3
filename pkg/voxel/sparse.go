package voxel

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/toolpath"
)

// NearSurfaceBand is the dense-value threshold below which cells are
// stored during sparse conversion. Cells at or above it are treated as
// implicit background. Geometry surfaces occupy a thin shell of the
// volume, so dropping the background is where the 10-20x compression
// comes from.
const NearSurfaceBand = 10.0

// Leaves are 8x8x8 blocks, the same leaf dimension NanoVDB uses.
const (
	leafLog2Dim = 3
	leafDim     = 1 << leafLog2Dim
	leafSize    = leafDim * leafDim * leafDim

	// Payload plus an estimate of key and map-entry overhead, used for
	// compression reporting.
	leafMemoryBytes = leafSize*4 + 48
)

// Compile-time interface check.
var _ Grid = (*SparseGrid)(nil)

type sparseLeaf struct {
	values [leafSize]float32
}

// SparseGrid is a read-only compressed volume built once from a completed
// DenseGrid. Only cells within NearSurfaceBand of the surface are stored;
// everything else reads back FarOutside. A SparseGrid is handle-like:
// share the pointer, never copy the struct. It is safe for concurrent
// reads once NewSparse has returned.
type SparseGrid struct {
	resolution int
	bounds     toolpath.AABB
	voxelSize  float32

	leaves map[uint64]*sparseLeaf

	activeVoxels    int
	denseEquivalent int
}

// NewSparse converts a completed dense grid into the compressed sparse
// form. The dense grid is read but not retained; it can be discarded
// afterwards.
func NewSparse(dense *DenseGrid) (*SparseGrid, error) {
	if dense == nil {
		return nil, errors.New("voxel: sparse conversion requires a dense grid")
	}

	res := dense.Resolution()
	g := &SparseGrid{
		resolution:      res,
		bounds:          dense.Bounds(),
		voxelSize:       dense.VoxelSize(),
		leaves:          make(map[uint64]*sparseLeaf),
		denseEquivalent: dense.MemoryUsage(),
	}

	for z := 0; z < res; z++ {
		for y := 0; y < res; y++ {
			for x := 0; x < res; x++ {
				value := dense.Get(x, y, z)
				if value < NearSurfaceBand {
					g.set(x, y, z, value)
					g.activeVoxels++
				}
			}
		}
	}

	return g, nil
}

func leafKey(x, y, z int) uint64 {
	return uint64(x>>leafLog2Dim)<<42 | uint64(y>>leafLog2Dim)<<21 | uint64(z>>leafLog2Dim)
}

func leafOffset(x, y, z int) int {
	const mask = leafDim - 1
	return (z&mask)<<(2*leafLog2Dim) | (y&mask)<<leafLog2Dim | x&mask
}

func (g *SparseGrid) set(x, y, z int, value float32) {
	key := leafKey(x, y, z)
	lf := g.leaves[key]
	if lf == nil {
		lf = &sparseLeaf{}
		for i := range lf.values {
			lf.values[i] = FarOutside
		}
		g.leaves[key] = lf
	}
	lf.values[leafOffset(x, y, z)] = value
}

// Resolution returns the cell count per axis, matching the source grid.
func (g *SparseGrid) Resolution() int { return g.resolution }

// Bounds returns the world-space box the grid covers.
func (g *SparseGrid) Bounds() toolpath.AABB { return g.bounds }

// VoxelSize returns the world-space edge length of one cell.
func (g *SparseGrid) VoxelSize() float32 { return g.voxelSize }

// ActiveVoxels returns the number of cells stored during conversion.
func (g *SparseGrid) ActiveVoxels() int { return g.activeVoxels }

// Get returns the value at integer cell coordinates. Unstored and
// out-of-range cells read back FarOutside.
func (g *SparseGrid) Get(x, y, z int) float32 {
	if x < 0 || y < 0 || z < 0 {
		return FarOutside
	}
	lf := g.leaves[leafKey(x, y, z)]
	if lf == nil {
		return FarOutside
	}
	return lf.values[leafOffset(x, y, z)]
}

// Sample returns the trilinearly interpolated value at a world position,
// reading its 8 corners through the sparse lookup. Within the stored
// near-surface band this agrees with DenseGrid.Sample.
func (g *SparseGrid) Sample(pos mgl32.Vec3) float32 {
	vp := pos.Sub(g.bounds.Min).Mul(1 / g.voxelSize)

	x0 := clampInt(int(math32.Floor(vp.X())), 0, g.resolution-1)
	y0 := clampInt(int(math32.Floor(vp.Y())), 0, g.resolution-1)
	z0 := clampInt(int(math32.Floor(vp.Z())), 0, g.resolution-1)

	fx := vp.X() - float32(x0)
	fy := vp.Y() - float32(y0)
	fz := vp.Z() - float32(z0)

	return lerp3(
		g.Get(x0, y0, z0), g.Get(x0+1, y0, z0),
		g.Get(x0, y0+1, z0), g.Get(x0+1, y0+1, z0),
		g.Get(x0, y0, z0+1), g.Get(x0+1, y0, z0+1),
		g.Get(x0, y0+1, z0+1), g.Get(x0+1, y0+1, z0+1),
		fx, fy, fz)
}

// MemoryUsage returns the compressed size in bytes.
func (g *SparseGrid) MemoryUsage() int {
	return len(g.leaves) * leafMemoryBytes
}

// DenseEquivalentBytes returns the size of the dense grid this was built
// from, for compression reporting.
func (g *SparseGrid) DenseEquivalentBytes() int { return g.denseEquivalent }

// CompressionRatio returns dense-equivalent bytes over compressed bytes.
func (g *SparseGrid) CompressionRatio() float32 {
	compressed := g.MemoryUsage()
	if compressed == 0 {
		return 0
	}
	return float32(g.denseEquivalent) / float32(compressed)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
