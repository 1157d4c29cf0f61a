package segmentation

import (
	"context"
	"fmt"

	"retailcli/internal/enrichment"
	ierrors "retailcli/internal/errors"
)

// rScoreLabels maps recency bucket index to score. Lower recency means a
// more recent purchase, so buckets are labeled descending.
var rScoreLabels = [quintiles]int{5, 4, 3, 2, 1}

// segmentRules is the ordered rule cascade for segment labels. Rules are
// evaluated top-down and the first match wins; categories overlap, so the
// order is part of the contract.
var segmentRules = []struct {
	label   string
	matches func(r, f, m int) bool
}{
	{SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{SegmentLoyal, func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 }},
	{SegmentNew, func(r, f, m int) bool { return r >= 4 && f <= 2 }},
	{SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 4 }},
	{SegmentInactive, func(r, f, m int) bool { return r <= 2 && f <= 2 }},
}

// ScoreRFM computes quantile scores, the concatenated RFM code and the
// rule-based segment label for each customer aggregate. Degenerate
// quantile binning surfaces as a fatal classified error.
func (e *Engine) ScoreRFM(ctx context.Context, customers []enrichment.CustomerAggregate) ([]ScoredCustomer, error) {
	e.logger.InfoContext(ctx, "computing RFM scores", "customers", len(customers))

	n := len(customers)
	recency := make([]float64, n)
	frequency := make([]float64, n)
	monetary := make([]float64, n)
	for i, c := range customers {
		recency[i] = float64(c.RecencyDays)
		frequency[i] = float64(c.NumInvoices)
		monetary[i] = c.Revenue
	}

	rBuckets, err := quintileBuckets(recency)
	if err != nil {
		return nil, ierrors.NewSegment(ierrors.CodeSegmentDegenerate, "recency quintile binning failed", err)
	}
	// Frequency is rank-transformed first to break ties consistently.
	fBuckets, err := quintileBuckets(rankFirst(frequency))
	if err != nil {
		return nil, ierrors.NewSegment(ierrors.CodeSegmentDegenerate, "frequency quintile binning failed", err)
	}
	mBuckets, err := quintileBuckets(monetary)
	if err != nil {
		return nil, ierrors.NewSegment(ierrors.CodeSegmentDegenerate, "monetary quintile binning failed", err)
	}

	scored := make([]ScoredCustomer, n)
	for i, c := range customers {
		r := rScoreLabels[rBuckets[i]]
		f := fBuckets[i] + 1
		m := mBuckets[i] + 1

		scored[i] = ScoredCustomer{
			CustomerID: c.CustomerID,
			Recency:    recency[i],
			Frequency:  frequency[i],
			Monetary:   monetary[i],
			RScore:     r,
			FScore:     f,
			MScore:     m,
			RFMCode:    fmt.Sprintf("%d%d%d", r, f, m),
			Segment:    segmentFor(r, f, m),
			Cluster:    -1,
		}
	}

	e.logSegmentCounts(ctx, scored)
	return scored, nil
}

// segmentFor evaluates the rule cascade top-down
func segmentFor(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.matches(r, f, m) {
			return rule.label
		}
	}
	return SegmentOther
}

func (e *Engine) logSegmentCounts(ctx context.Context, scored []ScoredCustomer) {
	counts := make(map[string]int)
	for _, s := range scored {
		counts[s.Segment]++
	}
	e.logger.InfoContext(ctx, "RFM segmentation complete",
		"champions", counts[SegmentChampions],
		"loyal", counts[SegmentLoyal],
		"new", counts[SegmentNew],
		"at_risk", counts[SegmentAtRisk],
		"inactive", counts[SegmentInactive],
		"other", counts[SegmentOther])
}
