package toolpath

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PathBuilder assembles a Toolpath programmatically, the way the motion
// parser would. It exists for tests, examples, and synthetic inputs; real
// toolpaths arrive already parsed.
type PathBuilder struct {
	layers  []Layer
	bounds  AABB
	total   int
	current int // index into layers for the open layer, -1 when none
}

// NewPathBuilder returns an empty builder.
func NewPathBuilder() *PathBuilder {
	return &PathBuilder{bounds: EmptyAABB(), current: -1}
}

// StartLayer opens a new layer at the given Z height. Subsequent segments
// are appended to it until the next StartLayer call.
func (pb *PathBuilder) StartLayer(z float32) *PathBuilder {
	pb.layers = append(pb.layers, Layer{Z: z})
	pb.current = len(pb.layers) - 1
	return pb
}

// Extrude appends a material-depositing segment to the open layer.
func (pb *PathBuilder) Extrude(start, end mgl32.Vec3, featureType string) *PathBuilder {
	return pb.add(Segment{Start: start, End: end, IsExtrusion: true, FeatureType: featureType})
}

// Travel appends a non-depositing move to the open layer.
func (pb *PathBuilder) Travel(start, end mgl32.Vec3) *PathBuilder {
	return pb.add(Segment{Start: start, End: end})
}

func (pb *PathBuilder) add(s Segment) *PathBuilder {
	if pb.current < 0 {
		pb.StartLayer(s.Start.Z())
	}
	layer := &pb.layers[pb.current]
	layer.Segments = append(layer.Segments, s)
	pb.total++
	pb.bounds.Extend(s.Start)
	pb.bounds.Extend(s.End)
	return pb
}

// Build finalizes the toolpath.
func (pb *PathBuilder) Build() *Toolpath {
	return &Toolpath{
		Layers:        pb.layers,
		Bounds:        pb.bounds,
		TotalSegments: pb.total,
	}
}
