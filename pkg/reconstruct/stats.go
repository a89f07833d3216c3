package reconstruct

import (
	"log"
	"time"
)

// Stats records what one Build call did. Written once per build, read-only
// afterwards.
type Stats struct {
	InputSegments     int
	ProcessedSegments int
	FilteredSegments  int

	OutputVertices  int
	OutputTriangles int

	GridBytes int
	MeshBytes int

	// CompressionRatio is set only for sparse builds.
	CompressionRatio float32

	BuildTime     time.Duration
	RasterizeTime time.Duration
	ExtractTime   time.Duration

	// FeatureCounts tallies extruding segments per feature label;
	// FilteredCounts the subset the shell filter rejected.
	FeatureCounts  map[string]int
	FilteredCounts map[string]int
}

// Log prints the statistics record.
func (s *Stats) Log() {
	log.Printf("reconstruction statistics:")
	log.Printf("  input segments:    %8d (%d processed, %d filtered)",
		s.InputSegments, s.ProcessedSegments, s.FilteredSegments)
	log.Printf("  output vertices:   %8d", s.OutputVertices)
	log.Printf("  output triangles:  %8d", s.OutputTriangles)
	log.Printf("  voxel grid memory: %8d KB", s.GridBytes/1024)
	log.Printf("  output mesh memory:%8d KB", s.MeshBytes/1024)
	if s.CompressionRatio > 0 {
		log.Printf("  sparse compression:%8.1fx", s.CompressionRatio)
	}
	log.Printf("  total build time:  %v", s.BuildTime)
	log.Printf("    rasterization:   %v", s.RasterizeTime)
	log.Printf("    extraction:      %v", s.ExtractTime)

	for label, count := range s.FilteredCounts {
		log.Printf("  filtered feature %-24q %6d segments", label, count)
	}
}
