package reconstruct

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/rasterize"
	"github.com/voxrecon/voxrecon/pkg/toolpath"
	"github.com/voxrecon/voxrecon/pkg/voxel"
)

// testBounds gives the toolpath a comfortable bounding box. Endpoint-only
// bounds from a single straight line are degenerate (flat in two axes)
// and would cut the deposited material's thickness off the grid.
var testBounds = toolpath.AABB{
	Min: mgl32.Vec3{-2, -2, -2},
	Max: mgl32.Vec3{12, 12, 12},
}

func lineToolpath(t *testing.T) *toolpath.Toolpath {
	t.Helper()
	b := toolpath.NewPathBuilder()
	b.StartLayer(0)
	b.Extrude(mgl32.Vec3{0, 5, 5}, mgl32.Vec3{10, 5, 5}, "Outer wall")
	tp := b.Build()
	tp.Bounds = testBounds
	return tp
}

// wallToolpath stacks one extruded line per layer into a vertical wall.
func wallToolpath(t *testing.T, layers int) *toolpath.Toolpath {
	t.Helper()
	b := toolpath.NewPathBuilder()
	for i := 0; i < layers; i++ {
		z := float32(i) * 0.5
		b.StartLayer(z)
		b.Extrude(mgl32.Vec3{0, 5, z}, mgl32.Vec3{10, 5, z}, "Outer wall")
	}
	tp := b.Build()
	tp.Bounds = testBounds
	return tp
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.GridResolution = 96
	opts.SegmentRadius = 0.5
	opts.SmoothingRadius = 0.5
	return opts
}

func TestOptionsClamping(t *testing.T) {
	opts := Options{
		GridResolution:  32,
		SegmentRadius:   0.001,
		SmoothingRadius: 10,
	}
	opts.Validate()
	if opts.GridResolution != MinResolution {
		t.Errorf("resolution clamped to %d, want %d", opts.GridResolution, MinResolution)
	}
	if opts.SegmentRadius != MinSegmentRadius {
		t.Errorf("segment radius clamped to %g, want %g", opts.SegmentRadius, MinSegmentRadius)
	}
	if opts.SmoothingRadius != MaxSmoothingRadius {
		t.Errorf("smoothing radius clamped to %g, want %g", opts.SmoothingRadius, MaxSmoothingRadius)
	}
	if opts.MaxZHeight != math32.MaxFloat32 {
		t.Errorf("zero max height became %g, want unbounded", opts.MaxZHeight)
	}

	opts = Options{GridResolution: 4096, SegmentRadius: 10, SmoothingRadius: 0.5}
	opts.Validate()
	if opts.GridResolution != MaxResolution {
		t.Errorf("resolution clamped to %d, want %d", opts.GridResolution, MaxResolution)
	}
	if opts.SegmentRadius != MaxSegmentRadius {
		t.Errorf("segment radius clamped to %g, want %g", opts.SegmentRadius, MaxSegmentRadius)
	}
}

func TestBuildEmptyToolpath(t *testing.T) {
	b := NewBuilder()

	m, err := b.Build(nil, testOptions())
	if err != nil {
		t.Fatalf("nil toolpath: %v", err)
	}
	if !m.IsEmpty() {
		t.Error("nil toolpath produced geometry")
	}

	m, err = b.Build(toolpath.NewPathBuilder().Build(), testOptions())
	if err != nil {
		t.Fatalf("empty toolpath: %v", err)
	}
	if !m.IsEmpty() {
		t.Error("empty toolpath produced geometry")
	}
}

func TestBuildSingleLine(t *testing.T) {
	b := NewBuilder()
	opts := testOptions()

	m, err := b.Build(lineToolpath(t), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("single extruded line produced an empty mesh")
	}

	// Every vertex lies on the capsule surface around the line, to
	// within a voxel.
	voxelSize := testBounds.MaxDimension() / float32(opts.GridResolution-1)
	start := mgl32.Vec3{0, 5, 5}
	end := mgl32.Vec3{10, 5, 5}
	for i, v := range m.Vertices {
		d := rasterize.CapsuleSDF(v, start, end, opts.SegmentRadius)
		if math32.Abs(d) > voxelSize {
			t.Fatalf("vertex %d is %g from the deposited surface", i, d)
		}
	}

	stats := b.LastStats()
	if stats.ProcessedSegments != 1 || stats.FilteredSegments != 0 {
		t.Errorf("stats %d processed / %d filtered, want 1 / 0",
			stats.ProcessedSegments, stats.FilteredSegments)
	}
	if stats.OutputTriangles != m.TriangleCount() {
		t.Errorf("stats report %d triangles, mesh has %d",
			stats.OutputTriangles, m.TriangleCount())
	}
	if stats.GridBytes == 0 || stats.MeshBytes == 0 {
		t.Error("memory statistics not recorded")
	}
}

func TestBuildIdempotent(t *testing.T) {
	b := NewBuilder()
	opts := testOptions()

	first, err := b.Build(lineToolpath(t), opts)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := b.Build(lineToolpath(t), opts)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if first.VertexCount() != second.VertexCount() ||
		first.TriangleCount() != second.TriangleCount() {
		t.Errorf("rebuild differs: %d/%d vertices, %d/%d triangles",
			first.VertexCount(), second.VertexCount(),
			first.TriangleCount(), second.TriangleCount())
	}
}

func TestBuildFeatureFiltering(t *testing.T) {
	pb := toolpath.NewPathBuilder()
	pb.StartLayer(5)
	pb.Extrude(mgl32.Vec3{0, 5, 5}, mgl32.Vec3{10, 5, 5}, "Outer wall")
	pb.Extrude(mgl32.Vec3{0, 6, 5}, mgl32.Vec3{10, 6, 5}, "Internal infill")
	tp := pb.Build()
	tp.Bounds = testBounds

	b := NewBuilder()
	if _, err := b.Build(tp, testOptions()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	stats := b.LastStats()
	if stats.ProcessedSegments != 1 {
		t.Errorf("processed = %d, want 1", stats.ProcessedSegments)
	}
	if stats.FilteredSegments != 1 {
		t.Errorf("filtered = %d, want 1", stats.FilteredSegments)
	}
	if stats.FeatureCounts["Outer wall"] != 1 || stats.FeatureCounts["Internal infill"] != 1 {
		t.Errorf("feature counts = %v", stats.FeatureCounts)
	}
	if stats.FilteredCounts["Internal infill"] != 1 {
		t.Errorf("filtered counts = %v", stats.FilteredCounts)
	}
}

func TestBuildOverlappingLinesWatertight(t *testing.T) {
	// Two parallel lines closer together than their combined width blend
	// into a single closed surface.
	pb := toolpath.NewPathBuilder()
	pb.StartLayer(5)
	pb.Extrude(mgl32.Vec3{0, 5, 5}, mgl32.Vec3{10, 5, 5}, "Outer wall")
	pb.Extrude(mgl32.Vec3{0, 5.8, 5}, mgl32.Vec3{10, 5.8, 5}, "Outer wall")
	tp := pb.Build()
	tp.Bounds = testBounds

	b := NewBuilder()
	m, err := b.Build(tp, testOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("overlapping lines produced an empty mesh")
	}

	// A welded closed surface references every undirected edge exactly
	// twice; unwelded duplicates would leave boundary edges.
	type meshEdge struct{ a, b uint32 }
	edgeUse := make(map[meshEdge]int)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tri := [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		for j := 0; j < 3; j++ {
			a, bb := tri[j], tri[(j+1)%3]
			if a > bb {
				a, bb = bb, a
			}
			edgeUse[meshEdge{a, bb}]++
		}
	}
	for e, n := range edgeUse {
		if n != 2 {
			t.Fatalf("edge %v referenced %d times, want 2", e, n)
		}
	}
}

func TestBuildPartialHeight(t *testing.T) {
	tp := wallToolpath(t, 9)
	opts := testOptions()

	b := NewBuilder()
	full, err := b.Build(tp, opts)
	if err != nil {
		t.Fatalf("full build: %v", err)
	}

	opts.MaxZHeight = 2
	partial, err := b.Build(tp, opts)
	if err != nil {
		t.Fatalf("partial build: %v", err)
	}

	if partial.IsEmpty() {
		t.Fatal("partial build produced an empty mesh")
	}
	if partial.TriangleCount() >= full.TriangleCount() {
		t.Fatalf("partial build has %d triangles, full build %d",
			partial.TriangleCount(), full.TriangleCount())
	}

	voxelSize := testBounds.MaxDimension() / float32(opts.GridResolution-1)
	limit := opts.MaxZHeight + voxelSize
	for i, v := range partial.Vertices {
		if v.Z() > limit {
			t.Fatalf("vertex %d at z=%g above cutoff %g", i, v.Z(), limit)
		}
	}
}

func TestBuildBudgetExceeded(t *testing.T) {
	opts := testOptions()
	opts.MemoryBudgetBytes = 1024

	b := NewBuilder()
	_, err := b.Build(lineToolpath(t), opts)
	if !errors.Is(err, voxel.ErrBudgetExceeded) {
		t.Fatalf("err = %v, want budget exceeded", err)
	}
}

func TestBuildSparseRetention(t *testing.T) {
	b := NewBuilder()
	opts := testOptions()
	opts.GridType = GridTypeSparse

	m, err := b.Build(lineToolpath(t), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("sparse build produced an empty mesh")
	}

	sparse := b.SparseGrid()
	if sparse == nil {
		t.Fatal("sparse build retained no grid")
	}
	if ratio := b.LastStats().CompressionRatio; ratio <= 1 {
		t.Errorf("compression ratio = %g, want > 1", ratio)
	}
	if sparse.ActiveVoxels() == 0 {
		t.Error("sparse grid has no active voxels")
	}

	// A dense build clears the retained grid.
	opts.GridType = GridTypeDense
	if _, err := b.Build(lineToolpath(t), opts); err != nil {
		t.Fatalf("dense build: %v", err)
	}
	if b.SparseGrid() != nil {
		t.Error("dense build retained a sparse grid")
	}
}
