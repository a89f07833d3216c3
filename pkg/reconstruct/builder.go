// Package reconstruct drives the volumetric reconstruction pipeline: it
// allocates a voxel grid over the toolpath's bounding box, rasterizes the
// toolpath into it as a signed distance field, and extracts a smooth
// triangle mesh of the result.
package reconstruct

import (
	"fmt"
	"log"
	"time"

	"github.com/voxrecon/voxrecon/pkg/marching"
	"github.com/voxrecon/voxrecon/pkg/mesh"
	"github.com/voxrecon/voxrecon/pkg/rasterize"
	"github.com/voxrecon/voxrecon/pkg/toolpath"
	"github.com/voxrecon/voxrecon/pkg/voxel"
)

// Builder runs reconstruction passes. Each Build call is independent;
// the builder only retains the statistics snapshot of the last build and,
// for sparse builds, the converted grid.
type Builder struct {
	stats  Stats
	sparse *voxel.SparseGrid
}

// NewBuilder returns a fresh Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// LastStats returns the statistics recorded by the most recent Build.
func (b *Builder) LastStats() Stats {
	return b.stats
}

// SparseGrid returns the compressed grid retained by the most recent
// sparse build, or nil for dense builds.
func (b *Builder) SparseGrid() *voxel.SparseGrid {
	return b.sparse
}

// Build reconstructs a triangle mesh from the toolpath. Options are
// clamped into safe ranges first. An empty toolpath (or one with no
// surviving segments after filtering) is not an error: it yields an empty
// mesh and zeroed statistics. Allocation and conversion failures abort
// the build and are returned to the caller.
func (b *Builder) Build(tp *toolpath.Toolpath, opts Options) (*mesh.TriangleMesh, error) {
	buildStart := time.Now()

	opts.Validate()
	b.stats = Stats{}
	b.sparse = nil

	if tp == nil || tp.Bounds.IsEmpty() {
		return &mesh.TriangleMesh{}, nil
	}

	segments := tp.FlattenSegments()
	log.Printf("reconstruct: %d segments in %d layers, %d^3 grid, radius %.2f, smoothing %.2f",
		len(segments), len(tp.Layers), opts.GridResolution, opts.SegmentRadius, opts.SmoothingRadius)

	grid, err := voxel.NewDense(opts.GridResolution, tp.Bounds, opts.MemoryBudgetBytes)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: allocating voxel grid: %w", err)
	}

	rasterizer := rasterize.Rasterizer{
		SegmentRadius:   opts.SegmentRadius,
		SmoothingRadius: opts.SmoothingRadius,
		Filter:          rasterize.Filter{Keywords: opts.ShellKeywords},
	}

	rasterStart := time.Now()
	result := rasterizer.Rasterize(grid, segments)
	rasterDone := time.Now()

	extractor := &marching.Extractor{IsoValue: opts.IsoValue, MaxZ: opts.MaxZHeight}
	m := extractor.Extract(grid)
	extractDone := time.Now()

	if opts.GridType == GridTypeSparse {
		sparse, err := voxel.NewSparse(grid)
		if err != nil {
			return nil, fmt.Errorf("reconstruct: sparse conversion: %w", err)
		}
		b.sparse = sparse
		b.stats.CompressionRatio = sparse.CompressionRatio()
	}

	b.stats.InputSegments = len(segments)
	b.stats.ProcessedSegments = result.Processed
	b.stats.FilteredSegments = result.Filtered
	b.stats.OutputVertices = m.VertexCount()
	b.stats.OutputTriangles = m.TriangleCount()
	b.stats.GridBytes = grid.MemoryUsage()
	b.stats.MeshBytes = m.MemoryUsage()
	b.stats.BuildTime = time.Since(buildStart)
	b.stats.RasterizeTime = rasterDone.Sub(rasterStart)
	b.stats.ExtractTime = extractDone.Sub(rasterDone)
	b.stats.FeatureCounts = result.FeatureCounts
	b.stats.FilteredCounts = result.FilteredCounts

	b.stats.Log()
	return m, nil
}
