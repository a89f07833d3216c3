package toolpath

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world units.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns a box that contains nothing; extending it with any
// point makes it valid.
func EmptyAABB() AABB {
	return AABB{
		Min: mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: mgl32.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Extend grows the box to contain p.
func (b *AABB) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

// Size returns the box extents along each axis.
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// MaxDimension returns the largest axis extent.
func (b AABB) MaxDimension() float32 {
	s := b.Size()
	return math32.Max(s.X(), math32.Max(s.Y(), s.Z()))
}

// Inflate returns a copy of the box grown by margin on every side.
func (b AABB) Inflate(margin float32) AABB {
	m := mgl32.Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// IsEmpty reports whether the box has never been extended.
func (b AABB) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}
