package rasterize

import (
	"strings"
)

// DefaultShellKeywords match the outer-surface-forming feature labels
// emitted by the common slicers (PrusaSlicer, OrcaSlicer, Cura). Infill,
// supports, and gap fill are deliberately excluded: interior moves add
// visual noise to the reconstructed shell without changing its outside.
// The list is policy data, not logic; swap it out for generators with a
// different vocabulary.
var DefaultShellKeywords = []string{
	"wall",
	"perimeter",
	"surface",
	"skin",
	"bridge",
}

// Filter selects which extruding segments contribute to the field based
// on their feature label. Matching is case-insensitive substring search.
type Filter struct {
	// Keywords to match against. Nil means DefaultShellKeywords.
	Keywords []string
}

// Match reports whether a segment with the given feature label should be
// rasterized. An empty label always passes: unlabeled toolpaths get the
// conservative everything-is-surface treatment.
func (f Filter) Match(featureType string) bool {
	if featureType == "" {
		return true
	}

	keywords := f.Keywords
	if keywords == nil {
		keywords = DefaultShellKeywords
	}

	label := strings.ToLower(featureType)
	for _, kw := range keywords {
		if strings.Contains(label, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
