package tools

import (
	"fmt"
	"html"
	"regexp"
)

// plotRefPattern matches [PLOT:id] references in agent text.
var plotRefPattern = regexp.MustCompile(`\[PLOT:([^\]]+)\]`)

// ResolutionStats summarizes one resolution pass.
type ResolutionStats struct {
	TotalReferences int      `json:"total_references"`
	Resolved        int      `json:"resolved"`
	Missing         []string `json:"missing,omitempty"`
}

// ReferenceResolver replaces [PLOT:id] references in report text with the
// stored chart markup. A reference to a plot that was never stored becomes a
// visible fallback block, never an empty hole.
type ReferenceResolver struct {
	storage *PlotStorage
}

// NewReferenceResolver creates a resolver over the given storage.
func NewReferenceResolver(storage *PlotStorage) *ReferenceResolver {
	return &ReferenceResolver{storage: storage}
}

// Resolve replaces every plot reference in text and reports what happened.
func (r *ReferenceResolver) Resolve(text string) (string, ResolutionStats) {
	var stats ResolutionStats
	resolved := plotRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		plotID := plotRefPattern.FindStringSubmatch(match)[1]
		stats.TotalReferences++

		plot, ok := r.storage.Get(plotID)
		if !ok {
			stats.Missing = append(stats.Missing, plotID)
			return fmt.Sprintf(
				`<div class="plot-fallback"><strong>Plot unavailable</strong>: chart %q was referenced but not generated.</div>`,
				html.EscapeString(plotID))
		}
		stats.Resolved++
		return fmt.Sprintf(
			`<div class="plot-container" id="plot-%s">%s<p class="plot-caption">%s</p></div>`,
			html.EscapeString(plot.ID), plot.HTML, html.EscapeString(plot.Description))
	})
	return resolved, stats
}
