package segmentation

// Segment labels assigned by the RFM rule cascade
const (
	SegmentChampions = "Champions"
	SegmentLoyal     = "Loyal"
	SegmentNew       = "New"
	SegmentAtRisk    = "At-risk/win-back"
	SegmentInactive  = "Inactive"
	SegmentOther     = "Other"
)

// ScoredCustomer is a customer aggregate extended with RFM quantile scores,
// the rule-based segment label, and the k-means cluster label.
type ScoredCustomer struct {
	CustomerID string `json:"customer_id"`

	// Raw RFM values
	Recency   float64 `json:"recency"`
	Frequency float64 `json:"frequency"`
	Monetary  float64 `json:"monetary"`

	// Quantile scores, each 1-5
	RScore int `json:"r_score"`
	FScore int `json:"f_score"`
	MScore int `json:"m_score"`

	// Concatenated 3-digit score code, e.g. "543"
	RFMCode string `json:"rfm_code"`

	Segment string `json:"segment"`
	Cluster int    `json:"cluster"`
}

// ClusterProfile summarizes one k-means cluster: mean raw R/F/M rounded to
// one decimal and the member count.
type ClusterProfile struct {
	Cluster       int     `json:"cluster"`
	MeanRecency   float64 `json:"mean_recency"`
	MeanFrequency float64 `json:"mean_frequency"`
	MeanMonetary  float64 `json:"mean_monetary"`
	Customers     int     `json:"customers"`
}

// ElbowPoint records the within-cluster sum of squared distances for one
// candidate cluster count of the advisory elbow sweep.
type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}
