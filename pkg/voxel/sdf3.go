package voxel

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/toolpath"
)

// FromSDF3 evaluates an analytic signed distance function onto a dense
// grid at the given resolution, covering the function's own bounding box
// plus a margin of one voxel-size estimate. This gives tests and examples
// exact reference fields (spheres, boxes, CSG solids) to feed through the
// same storage and extraction paths the rasterizer output takes.
func FromSDF3(s sdf.SDF3, resolution int, budgetBytes int) (*DenseGrid, error) {
	if s == nil {
		return nil, fmt.Errorf("voxel: nil SDF3")
	}

	bb := s.BoundingBox()
	bounds := toolpath.AABB{
		Min: mgl32.Vec3{float32(bb.Min.X), float32(bb.Min.Y), float32(bb.Min.Z)},
		Max: mgl32.Vec3{float32(bb.Max.X), float32(bb.Max.Y), float32(bb.Max.Z)},
	}
	// Pad so the zero crossing never touches the outermost cell layer,
	// which the extractor does not visit.
	bounds = bounds.Inflate(bounds.MaxDimension() / float32(resolution-1) * 2)

	grid, err := NewDense(resolution, bounds, budgetBytes)
	if err != nil {
		return nil, fmt.Errorf("voxel: allocating grid for SDF3: %w", err)
	}

	res := grid.Resolution()
	for z := 0; z < res; z++ {
		for y := 0; y < res; y++ {
			for x := 0; x < res; x++ {
				p := grid.VoxelToWorld(x, y, z)
				d := s.Evaluate(v3.Vec{X: float64(p.X()), Y: float64(p.Y()), Z: float64(p.Z())})
				grid.Set(x, y, z, float32(d))
			}
		}
	}

	return grid, nil
}
