// Package abundance derives proportional abundance of taxa in samples.
package abundance

import (
	"github.com/gnames/gnotu/pkg/schema"
)

// Threshold is the smallest count that takes part in the per-sample
// total. Smaller counts come from pre-normalized pipelines and are
// already proportions.
const Threshold = 1.0

// Proportions sets ProportionalAbundance of every edge in place. For
// edges with Count >= Threshold it is Count divided by the sample's sum
// of such counts; other edges keep their Count.
func Proportions(edges []schema.Abundance) {
	totals := make(map[int64]float64)
	for _, v := range edges {
		if v.Count >= Threshold {
			totals[v.SampleID] += v.Count
		}
	}

	for i := range edges {
		e := &edges[i]
		if e.Count < Threshold {
			e.ProportionalAbundance = e.Count
			continue
		}
		e.ProportionalAbundance = e.Count / totals[e.SampleID]
	}
}
