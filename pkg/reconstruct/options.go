package reconstruct

import (
	"github.com/chewxy/math32"
)

// GridType selects the volumetric storage backend.
type GridType int

const (
	// GridTypeDense keeps the flat float32 grid: fast and simple, at
	// resolution^3 x 4 bytes.
	GridTypeDense GridType = iota

	// GridTypeSparse additionally converts the finished grid into the
	// compressed sparse form, for callers that keep the volume resident
	// after the build. Slower, 10-20x smaller.
	GridTypeSparse
)

// Option clamp ranges. Out-of-range values are corrected silently, never
// rejected.
const (
	MinResolution = 64
	MaxResolution = 1024

	MinSegmentRadius = 0.05
	MaxSegmentRadius = 1.0

	MinSmoothingRadius = 0.1
	MaxSmoothingRadius = 2.0
)

// Options configures one reconstruction pass.
type Options struct {
	// GridResolution is the voxel count per axis.
	GridResolution int

	// SegmentRadius is half the physical width of a deposited line, in
	// world units.
	SegmentRadius float32

	// SmoothingRadius is the smooth-minimum blend distance.
	SmoothingRadius float32

	// IsoValue is the surface threshold; zero extracts the exact
	// surface of the distance field.
	IsoValue float32

	// GridType selects the storage backend.
	GridType GridType

	// MaxZHeight restricts extraction to cells at or below this world
	// height. Values <= 0 mean no restriction.
	MaxZHeight float32

	// ShellKeywords overrides the feature-filter keyword list. Nil uses
	// rasterize.DefaultShellKeywords.
	ShellKeywords []string

	// MemoryBudgetBytes caps the dense grid allocation. Zero means
	// uncapped; voxel.SystemBudgetBytes() gives a sensible cap on
	// memory-constrained hosts.
	MemoryBudgetBytes int
}

// DefaultOptions are the values tuned for 0.4mm-nozzle prints.
func DefaultOptions() Options {
	return Options{
		GridResolution:  256,
		SegmentRadius:   0.21,
		SmoothingRadius: 0.5,
		IsoValue:        0,
		GridType:        GridTypeDense,
		MaxZHeight:      math32.MaxFloat32,
	}
}

// Validate clamps all numeric options into their safe ranges.
func (o *Options) Validate() {
	o.GridResolution = clampInt(o.GridResolution, MinResolution, MaxResolution)
	o.SegmentRadius = math32.Max(MinSegmentRadius, math32.Min(MaxSegmentRadius, o.SegmentRadius))
	o.SmoothingRadius = math32.Max(MinSmoothingRadius, math32.Min(MaxSmoothingRadius, o.SmoothingRadius))
	if o.MaxZHeight <= 0 {
		o.MaxZHeight = math32.MaxFloat32
	}
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
