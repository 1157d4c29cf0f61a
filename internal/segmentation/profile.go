package segmentation

import (
	"math"
	"sort"
)

// Profiles groups scored customers by cluster label and summarizes each
// cluster with its mean raw R/F/M (rounded to one decimal) and member
// count, sorted by cluster label ascending.
func Profiles(scored []ScoredCustomer) []ClusterProfile {
	type accumulator struct {
		r, f, m float64
		count   int
	}

	acc := make(map[int]*accumulator)
	for _, s := range scored {
		a, ok := acc[s.Cluster]
		if !ok {
			a = &accumulator{}
			acc[s.Cluster] = a
		}
		a.r += s.Recency
		a.f += s.Frequency
		a.m += s.Monetary
		a.count++
	}

	profiles := make([]ClusterProfile, 0, len(acc))
	for cluster, a := range acc {
		n := float64(a.count)
		profiles = append(profiles, ClusterProfile{
			Cluster:       cluster,
			MeanRecency:   round1(a.r / n),
			MeanFrequency: round1(a.f / n),
			MeanMonetary:  round1(a.m / n),
			Customers:     a.count,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Cluster < profiles[j].Cluster
	})
	return profiles
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
