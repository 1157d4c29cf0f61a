package segmentation

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	ierrors "retailcli/internal/errors"
)

// rfmDims is the dimensionality of the clustered vectors: (R, F, M)
const rfmDims = 3

// Cluster standardizes the raw (R, F, M) vectors and assigns each customer
// a k-means cluster label using the configured cluster count and seed.
// Same input, same seed and same k always yield identical labels.
func (e *Engine) Cluster(ctx context.Context, scored []ScoredCustomer) ([]ScoredCustomer, error) {
	if e.clusters > len(scored) {
		return nil, ierrors.NewSegment(ierrors.CodeSegmentFailed,
			fmt.Sprintf("cannot form %d clusters from %d customers", e.clusters, len(scored)), nil)
	}

	points := standardize(rfmVectors(scored))

	labels, inertia := kmeansRun(points, e.clusters, e.seed, e.maxIterations)

	out := make([]ScoredCustomer, len(scored))
	copy(out, scored)
	for i := range out {
		out[i].Cluster = labels[i]
	}

	e.logger.InfoContext(ctx, "k-means clustering complete",
		"clusters", e.clusters,
		"seed", e.seed,
		"inertia", inertia)

	return out, nil
}

// ElbowSweep runs k-means for k = 1..elbowMaxK (capped at the customer
// count) and records the inertia per k. The sweep is advisory output for
// elbow inspection; it never picks a cluster count itself.
func (e *Engine) ElbowSweep(ctx context.Context, scored []ScoredCustomer) ([]ElbowPoint, error) {
	if len(scored) == 0 {
		return nil, ierrors.NewSegment(ierrors.CodeSegmentFailed, "no customers to sweep", nil)
	}

	points := standardize(rfmVectors(scored))

	maxK := e.elbowMaxK
	if maxK > len(points) {
		maxK = len(points)
	}

	sweep := make([]ElbowPoint, 0, maxK)
	for k := 1; k <= maxK; k++ {
		_, inertia := kmeansRun(points, k, e.seed, e.maxIterations)
		sweep = append(sweep, ElbowPoint{K: k, Inertia: inertia})
	}

	e.logger.DebugContext(ctx, "elbow sweep complete", "max_k", maxK)
	return sweep, nil
}

// rfmVectors extracts the raw (R, F, M) vectors in customer order
func rfmVectors(scored []ScoredCustomer) [][rfmDims]float64 {
	points := make([][rfmDims]float64, len(scored))
	for i, s := range scored {
		points[i] = [rfmDims]float64{s.Recency, s.Frequency, s.Monetary}
	}
	return points
}

// standardize scales each dimension to zero mean and unit variance using
// the population standard deviation. A constant dimension is left centered
// only, its deviation treated as 1.
func standardize(points [][rfmDims]float64) [][rfmDims]float64 {
	n := len(points)
	if n == 0 {
		return points
	}

	out := make([][rfmDims]float64, n)
	column := make([]float64, n)

	for d := 0; d < rfmDims; d++ {
		for i := range points {
			column[i] = points[i][d]
		}
		mean := stat.Mean(column, nil)
		std := stat.PopStdDev(column, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := range points {
			out[i][d] = (points[i][d] - mean) / std
		}
	}
	return out
}

// kmeansRun performs seeded k-means++ initialization followed by Lloyd
// iterations and returns the per-point labels and the final inertia.
func kmeansRun(points [][rfmDims]float64, k int, seed int64, maxIterations int) ([]int, float64) {
	n := len(points)
	labels := make([]int, n)
	if k <= 1 || n == 0 {
		return labels, totalInertia(points, [][rfmDims]float64{meanPoint(points)}, labels)
	}
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(points, k, rng)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCenter(p, centers)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		centers = recomputeCenters(points, labels, centers)

		if !changed && iter > 0 {
			break
		}
	}

	return labels, totalInertia(points, centers, labels)
}

// seedCenters picks k initial centers with k-means++ weighting: the first
// uniformly, the rest proportional to squared distance from the nearest
// chosen center.
func seedCenters(points [][rfmDims]float64, k int, rng *rand.Rand) [][rfmDims]float64 {
	centers := make([][rfmDims]float64, 0, k)
	centers = append(centers, points[rng.Intn(len(points))])

	distances := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			d := squaredDistance(p, centers[nearestCenter(p, centers)])
			distances[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a center; any choice works.
			centers = append(centers, points[rng.Intn(len(points))])
			continue
		}

		target := rng.Float64() * total
		var cumulative float64
		choice := len(points) - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				choice = i
				break
			}
		}
		centers = append(centers, points[choice])
	}
	return centers
}

// nearestCenter returns the index of the closest center to p
func nearestCenter(p [rfmDims]float64, centers [][rfmDims]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range centers {
		if d := squaredDistance(p, c); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// recomputeCenters moves each center to the mean of its assigned points.
// An emptied cluster keeps its previous center.
func recomputeCenters(points [][rfmDims]float64, labels []int, previous [][rfmDims]float64) [][rfmDims]float64 {
	k := len(previous)
	sums := make([][rfmDims]float64, k)
	counts := make([]int, k)

	for i, p := range points {
		l := labels[i]
		for d := 0; d < rfmDims; d++ {
			sums[l][d] += p[d]
		}
		counts[l]++
	}

	centers := make([][rfmDims]float64, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			centers[c] = previous[c]
			continue
		}
		for d := 0; d < rfmDims; d++ {
			centers[c][d] = sums[c][d] / float64(counts[c])
		}
	}
	return centers
}

// totalInertia is the within-cluster sum of squared distances
func totalInertia(points [][rfmDims]float64, centers [][rfmDims]float64, labels []int) float64 {
	var total float64
	for i, p := range points {
		total += squaredDistance(p, centers[labels[i]])
	}
	return total
}

// meanPoint is the centroid of all points
func meanPoint(points [][rfmDims]float64) [rfmDims]float64 {
	var mean [rfmDims]float64
	if len(points) == 0 {
		return mean
	}
	for _, p := range points {
		for d := 0; d < rfmDims; d++ {
			mean[d] += p[d]
		}
	}
	for d := 0; d < rfmDims; d++ {
		mean[d] /= float64(len(points))
	}
	return mean
}

// squaredDistance is the squared Euclidean distance between two vectors
func squaredDistance(a, b [rfmDims]float64) float64 {
	var sum float64
	for d := 0; d < rfmDims; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}
