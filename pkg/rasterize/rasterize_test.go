package rasterize

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/toolpath"
	"github.com/voxrecon/voxrecon/pkg/voxel"
)

func testGrid(t *testing.T, resolution int) *voxel.DenseGrid {
	t.Helper()
	bounds := toolpath.AABB{
		Min: mgl32.Vec3{-2, -2, -2},
		Max: mgl32.Vec3{12, 12, 12},
	}
	grid, err := voxel.NewDense(resolution, bounds, 0)
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	return grid
}

func TestCapsuleSDFOnAxis(t *testing.T) {
	start := mgl32.Vec3{0, 0, 0}
	end := mgl32.Vec3{10, 0, 0}

	// On the capsule surface, beside the middle of the segment.
	d := CapsuleSDF(mgl32.Vec3{5, 0.5, 0}, start, end, 0.5)
	if math32.Abs(d) > 1e-5 {
		t.Errorf("surface distance = %g, want 0", d)
	}

	// On the axis, well inside.
	d = CapsuleSDF(mgl32.Vec3{5, 0, 0}, start, end, 0.5)
	if math32.Abs(d+0.5) > 1e-5 {
		t.Errorf("axis distance = %g, want -0.5", d)
	}

	// Past the end cap, outside.
	d = CapsuleSDF(mgl32.Vec3{12, 0, 0}, start, end, 0.5)
	if math32.Abs(d-1.5) > 1e-5 {
		t.Errorf("end cap distance = %g, want 1.5", d)
	}
}

func TestCapsuleSDFMonotonicOutside(t *testing.T) {
	start := mgl32.Vec3{0, 0, 0}
	end := mgl32.Vec3{10, 0, 0}

	prev := CapsuleSDF(mgl32.Vec3{5, 1, 0}, start, end, 0.5)
	for y := float32(2); y <= 6; y++ {
		d := CapsuleSDF(mgl32.Vec3{5, y, 0}, start, end, 0.5)
		if d <= prev {
			t.Fatalf("distance not increasing away from surface: %g then %g", prev, d)
		}
		prev = d
	}
}

func TestCapsuleSDFDegenerate(t *testing.T) {
	// Coincident endpoints behave as a sphere.
	c := mgl32.Vec3{3, 3, 3}
	d := CapsuleSDF(mgl32.Vec3{3, 3, 5}, c, c, 0.5)
	if math32.Abs(d-1.5) > 1e-5 {
		t.Errorf("degenerate capsule distance = %g, want 1.5", d)
	}
}

func TestSmoothMinBounds(t *testing.T) {
	cases := []struct{ a, b float32 }{
		{1, 2},
		{-1, 3},
		{0.4, 0.5},
		{-0.2, -0.1},
	}
	for _, c := range cases {
		s := SmoothMin(c.a, c.b, 0.5)
		if s > math32.Min(c.a, c.b) {
			t.Errorf("SmoothMin(%g, %g) = %g above plain min", c.a, c.b, s)
		}
	}

	// Far-apart values blend back to the plain minimum.
	if s := SmoothMin(1, 100, 0.5); s != 1 {
		t.Errorf("distant SmoothMin = %g, want 1", s)
	}

	// Small k converges toward min.
	s := SmoothMin(0.4, 0.5, 0.01)
	if math32.Abs(s-0.4) > 0.01 {
		t.Errorf("small-k SmoothMin = %g, want near 0.4", s)
	}
}

func TestFilterDefaults(t *testing.T) {
	var f Filter

	accepted := []string{"Outer wall", "Inner wall", "Top surface", "perimeter", "SKIN", "Bridge infill", ""}
	for _, label := range accepted {
		if !f.Match(label) {
			t.Errorf("default filter rejected %q", label)
		}
	}

	rejected := []string{"Internal infill", "Support", "Skirt"}
	for _, label := range rejected {
		if f.Match(label) {
			t.Errorf("default filter accepted %q", label)
		}
	}
}

func TestFilterCustomKeywords(t *testing.T) {
	f := Filter{Keywords: []string{"infill"}}

	if !f.Match("Internal infill") {
		t.Error("custom filter rejected matching label")
	}
	if f.Match("Outer wall") {
		t.Error("custom filter accepted non-matching label")
	}
	if !f.Match("") {
		t.Error("custom filter rejected empty label")
	}
}

func TestRasterizeSingleSegment(t *testing.T) {
	grid := testGrid(t, 64)
	r := &Rasterizer{SegmentRadius: 0.5, SmoothingRadius: 0.5}

	segments := []toolpath.Segment{{
		Start:       mgl32.Vec3{0, 5, 5},
		End:         mgl32.Vec3{10, 5, 5},
		IsExtrusion: true,
	}}

	result := r.Rasterize(grid, segments)
	if result.Processed != 1 {
		t.Fatalf("processed %d segments, want 1", result.Processed)
	}

	// The voxel nearest the segment midpoint must be inside the capsule.
	x, y, z := grid.WorldToVoxel(mgl32.Vec3{5, 5, 5})
	if v := grid.Get(x, y, z); v >= 0 {
		t.Errorf("midpoint voxel value = %g, want negative", v)
	}

	// A far corner stays untouched.
	if v := grid.Get(0, 0, 0); v != voxel.FarOutside {
		t.Errorf("far voxel value = %g, want FarOutside", v)
	}
}

func TestRasterizeSkipsTravel(t *testing.T) {
	grid := testGrid(t, 32)
	r := &Rasterizer{SegmentRadius: 0.5, SmoothingRadius: 0.5}

	segments := []toolpath.Segment{{
		Start: mgl32.Vec3{0, 5, 5},
		End:   mgl32.Vec3{10, 5, 5},
	}}

	result := r.Rasterize(grid, segments)
	if result.Processed != 0 || result.Filtered != 0 {
		t.Fatalf("travel move counted: %+v", result)
	}
	for z := 0; z < 32; z++ {
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				if grid.Get(x, y, z) != voxel.FarOutside {
					t.Fatalf("voxel (%d,%d,%d) modified by travel move", x, y, z)
				}
			}
		}
	}
}

func TestRasterizeFeatureFiltering(t *testing.T) {
	grid := testGrid(t, 32)
	r := &Rasterizer{SegmentRadius: 0.5, SmoothingRadius: 0.5}

	segments := []toolpath.Segment{
		{
			Start:       mgl32.Vec3{0, 5, 5},
			End:         mgl32.Vec3{10, 5, 5},
			IsExtrusion: true,
			FeatureType: "Outer wall",
		},
		{
			Start:       mgl32.Vec3{0, 6, 5},
			End:         mgl32.Vec3{10, 6, 5},
			IsExtrusion: true,
			FeatureType: "Internal infill",
		},
	}

	result := r.Rasterize(grid, segments)
	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Processed)
	}
	if result.Filtered != 1 {
		t.Errorf("filtered = %d, want 1", result.Filtered)
	}
	if result.FeatureCounts["Outer wall"] != 1 || result.FeatureCounts["Internal infill"] != 1 {
		t.Errorf("feature counts = %v", result.FeatureCounts)
	}
	if result.FilteredCounts["Internal infill"] != 1 {
		t.Errorf("filtered counts = %v", result.FilteredCounts)
	}
}

func TestRasterizeOverlapBlends(t *testing.T) {
	grid := testGrid(t, 64)
	r := &Rasterizer{SegmentRadius: 0.5, SmoothingRadius: 0.5}

	// Two parallel lines closer than twice the radius merge into one
	// solid region between them.
	segments := []toolpath.Segment{
		{Start: mgl32.Vec3{0, 5.0, 5}, End: mgl32.Vec3{10, 5.0, 5}, IsExtrusion: true},
		{Start: mgl32.Vec3{0, 5.8, 5}, End: mgl32.Vec3{10, 5.8, 5}, IsExtrusion: true},
	}
	r.Rasterize(grid, segments)

	x, y, z := grid.WorldToVoxel(mgl32.Vec3{5, 5.4, 5})
	if v := grid.Get(x, y, z); v >= 0 {
		t.Errorf("gap between overlapping lines not solid: %g", v)
	}
}
