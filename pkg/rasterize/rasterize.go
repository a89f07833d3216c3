// Package rasterize fills a dense voxel grid with the signed distance
// field of a toolpath. Each material-depositing segment is treated as a
// capsule (a rounded cylinder matching the cross-section of deposited
// material) and accumulated into the grid with a smooth minimum, so
// overlapping segments blend into one continuous surface instead of
// meeting at hard creases.
package rasterize

import (
	"log"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/toolpath"
	"github.com/voxrecon/voxrecon/pkg/voxel"
)

// Rasterizer holds the per-build geometry parameters. It mutates the
// target grid and nothing else; the same Rasterizer can run any number of
// builds.
type Rasterizer struct {
	// SegmentRadius is the capsule radius: half the physical width of a
	// deposited line, in world units.
	SegmentRadius float32

	// SmoothingRadius is the smooth-minimum blend distance. Larger
	// values round junctions more; as it approaches zero the blend
	// converges to a plain minimum.
	SmoothingRadius float32

	// Filter decides which segments contribute. Zero value means the
	// default shell-only policy.
	Filter Filter
}

// Result reports what a rasterization pass did.
type Result struct {
	// Processed counts segments actually rasterized into the grid.
	Processed int

	// Filtered counts extruding segments rejected by the feature
	// filter. Travel moves are not counted at all.
	Filtered int

	// FeatureCounts tallies extruding segments per feature label. The
	// empty label is recorded as "<empty>".
	FeatureCounts map[string]int

	// FilteredCounts tallies the rejected segments per feature label.
	FilteredCounts map[string]int
}

// Rasterize accumulates every surviving segment into the grid. The grid
// is expected to arrive filled with voxel.FarOutside; an empty or
// fully-filtered segment list leaves it that way, which downstream
// extraction turns into an empty mesh.
func (r *Rasterizer) Rasterize(grid *voxel.DenseGrid, segments []toolpath.Segment) Result {
	result := Result{
		FeatureCounts:  make(map[string]int),
		FilteredCounts: make(map[string]int),
	}

	resolution := grid.Resolution()

	// A voxel only matters if it can end up within the blend range of
	// the capsule surface.
	influence := r.SegmentRadius + r.SmoothingRadius + grid.VoxelSize()

	filter := r.Filter
	for _, seg := range segments {
		if !seg.IsExtrusion {
			continue
		}

		if seg.FeatureType != "" {
			result.FeatureCounts[seg.FeatureType]++
		} else {
			result.FeatureCounts["<empty>"]++
		}

		if !filter.Match(seg.FeatureType) {
			result.FilteredCounts[seg.FeatureType]++
			result.Filtered++
			continue
		}

		r.rasterizeSegment(grid, seg, influence, resolution)

		result.Processed++
		if result.Processed%1000 == 0 {
			log.Printf("rasterize: %d/%d segments", result.Processed, len(segments))
		}
	}

	return result
}

// rasterizeSegment visits only the voxels inside the segment's inflated
// bounding box and smooth-min blends the capsule distance into each.
func (r *Rasterizer) rasterizeSegment(grid *voxel.DenseGrid, seg toolpath.Segment, influence float32, resolution int) {
	segMin := mgl32.Vec3{
		math32.Min(seg.Start.X(), seg.End.X()) - influence,
		math32.Min(seg.Start.Y(), seg.End.Y()) - influence,
		math32.Min(seg.Start.Z(), seg.End.Z()) - influence,
	}
	segMax := mgl32.Vec3{
		math32.Max(seg.Start.X(), seg.End.X()) + influence,
		math32.Max(seg.Start.Y(), seg.End.Y()) + influence,
		math32.Max(seg.Start.Z(), seg.End.Z()) + influence,
	}

	x0, y0, z0 := grid.WorldToVoxel(segMin)
	x1, y1, z1 := grid.WorldToVoxel(segMax)

	x0, y0, z0 = max(x0, 0), max(y0, 0), max(z0, 0)
	x1 = min(x1, resolution-1)
	y1 = min(y1, resolution-1)
	z1 = min(z1, resolution-1)

	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				p := grid.VoxelToWorld(x, y, z)
				dist := CapsuleSDF(p, seg.Start, seg.End, r.SegmentRadius)
				blended := SmoothMin(grid.Get(x, y, z), dist, r.SmoothingRadius)
				grid.Set(x, y, z, blended)
			}
		}
	}
}

// CapsuleSDF returns the signed distance from p to the surface of a
// capsule: the segment from start to end swept by a sphere of the given
// radius. Negative inside. A near-zero-length segment degrades to a
// sphere around start.
func CapsuleSDF(p, start, end mgl32.Vec3, radius float32) float32 {
	segment := end.Sub(start)
	length2 := segment.Dot(segment)

	if length2 < 1e-8 {
		return p.Sub(start).Len() - radius
	}

	t := p.Sub(start).Dot(segment) / length2
	t = mgl32.Clamp(t, 0, 1)

	closest := start.Add(segment.Mul(t))
	return p.Sub(closest).Len() - radius
}

// SmoothMin is the polynomial smooth minimum (C1 continuous):
//
//	h = max(k - |a-b|, 0) / k
//	smin = min(a, b) - h*h*k/4
//
// Always <= min(a, b), converging to it as k approaches zero.
// Reference: https://iquilezles.org/articles/smin/
func SmoothMin(a, b, k float32) float32 {
	h := math32.Max(k-math32.Abs(a-b), 0) / k
	return math32.Min(a, b) - h*h*k*0.25
}
