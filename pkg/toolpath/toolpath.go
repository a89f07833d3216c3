// Package toolpath defines the machine-motion input types consumed by the
// reconstruction engine. A toolpath is an ordered list of layers, each an
// ordered list of line segments, produced by an upstream motion-program
// parser. The engine reads these types but never mutates them.
package toolpath

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Segment is a single straight toolpath move between two points.
type Segment struct {
	Start mgl32.Vec3
	End   mgl32.Vec3

	// IsExtrusion is true when the move deposits material. Travel and
	// retraction moves carry false and contribute no solid volume.
	IsExtrusion bool

	// FeatureType is the upstream generator's label for this move
	// ("Outer wall", "Internal infill", ...). May be empty.
	FeatureType string
}

// Layer groups the segments printed at one Z height.
type Layer struct {
	Z        float32
	Segments []Segment
}

// Toolpath is a fully parsed motion program: ordered layers plus the
// precomputed bounding box over every segment endpoint.
type Toolpath struct {
	Layers        []Layer
	Bounds        AABB
	TotalSegments int
}

// FlattenSegments returns every segment from every layer in print order.
func (tp *Toolpath) FlattenSegments() []Segment {
	segments := make([]Segment, 0, tp.TotalSegments)
	for _, layer := range tp.Layers {
		segments = append(segments, layer.Segments...)
	}
	return segments
}
