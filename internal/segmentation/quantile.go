package segmentation

import (
	"fmt"
	"sort"
)

// quintiles is the number of quantile buckets used for RFM scoring
const quintiles = 5

// quintileBuckets assigns each value to one of five equal-population
// buckets, returning bucket indices 0..4 in input order. Cut points are
// computed by linear interpolation over the sorted values. Buckets are
// right-closed: a value equal to a cut point lands in the lower bucket, so
// equal values always share a bucket.
//
// When the cut points are not strictly increasing the input is degenerate
// (too few distinct value groups to form five buckets) and an error is
// returned; a silently collapsed bucket would mis-score every customer.
func quintileBuckets(values []float64) ([]int, error) {
	if len(values) < quintiles {
		return nil, fmt.Errorf("need at least %d values for quintile binning, got %d", quintiles, len(values))
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// Full edge set including min and max; all six must be strictly
	// increasing for five non-empty intervals to exist.
	edges := make([]float64, 0, quintiles+1)
	edges = append(edges, sorted[0])
	for i := 1; i < quintiles; i++ {
		edges = append(edges, interpolatedQuantile(sorted, float64(i)/quintiles))
	}
	edges = append(edges, sorted[len(sorted)-1])

	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, fmt.Errorf("degenerate quantile edges: edge %d (%g) <= edge %d (%g)",
				i, edges[i], i-1, edges[i-1])
		}
	}

	inner := edges[1:quintiles] // the four cut points

	buckets := make([]int, len(values))
	for i, v := range values {
		buckets[i] = sort.SearchFloat64s(inner, v)
	}
	return buckets, nil
}

// interpolatedQuantile computes quantile p of ascending-sorted values with
// linear interpolation between the two nearest order statistics.
func interpolatedQuantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

// rankFirst replaces each value with its ascending rank 1..n, breaking
// ties by original position. The result is always free of duplicates, so
// quintile binning over ranks cannot degenerate.
func rankFirst(values []float64) []float64 {
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return values[indices[a]] < values[indices[b]]
	})

	ranks := make([]float64, len(values))
	for rank, idx := range indices {
		ranks[idx] = float64(rank + 1)
	}
	return ranks
}
