// Package segmentation implements customer segmentation over the customer
// aggregate table in two sequential steps.
//
// # RFM scoring
//
// Recency, frequency and monetary value are scored into five quantile
// buckets each. Recency buckets are labeled 5 down to 1 (a more recent
// customer scores higher); frequency is rank-transformed first so ties
// break by first occurrence, then labeled 1 to 5; monetary value is
// labeled 1 to 5. The three digits concatenate into an RFM code and a
// categorical segment label is assigned by an ordered rule cascade where
// the first matching rule wins.
//
// Quantile cut points are computed with linear interpolation over a stable
// ascending sort of the values; equal values always land in the same
// bucket, with the lower bucket winning at a boundary. Binning fails with
// a classified degenerate-input error when the cut points are not strictly
// increasing (too few distinct value groups); there is no silent fallback.
//
// # K-means clustering
//
// The raw (R, F, M) values, not the quantile scores, are standardized to
// zero mean and unit variance and clustered with seeded k-means. An
// advisory inertia sweep over k = 1..10 supports elbow inspection; the
// final clustering uses the caller-supplied cluster count. The same input,
// seed and k always produce identical labels.
package segmentation
