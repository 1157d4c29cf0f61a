package segmentation

import (
	"context"
	"log/slog"
	"time"

	"retailcli/internal/enrichment"
)

// Defaults for the segmentation engine
const (
	DefaultClusters      = 4
	DefaultSeed          = 42
	DefaultElbowMaxK     = 10
	DefaultMaxIterations = 300
)

// Engine orchestrates RFM scoring and k-means clustering over the customer
// aggregate table
type Engine struct {
	clusters      int
	seed          int64
	elbowMaxK     int
	maxIterations int
	logger        *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClusters sets the final cluster count
func WithClusters(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.clusters = k
		}
	}
}

// WithSeed sets the random seed used by k-means for reproducible labels
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithElbowMaxK sets the upper bound of the advisory inertia sweep
func WithElbowMaxK(maxK int) Option {
	return func(e *Engine) {
		if maxK > 0 {
			e.elbowMaxK = maxK
		}
	}
}

// WithMaxIterations caps the Lloyd iterations per k-means run
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// NewEngine creates a segmentation engine with the given options
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		clusters:      DefaultClusters,
		seed:          DefaultSeed,
		elbowMaxK:     DefaultElbowMaxK,
		maxIterations: DefaultMaxIterations,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Segment runs the full segmentation: RFM scoring, the advisory elbow
// sweep, seeded k-means with the configured cluster count, and cluster
// profiling. Any failure is fatal for the stage.
func (e *Engine) Segment(ctx context.Context, customers []enrichment.CustomerAggregate) ([]ScoredCustomer, []ElbowPoint, []ClusterProfile, error) {
	start := time.Now()

	scored, err := e.ScoreRFM(ctx, customers)
	if err != nil {
		return nil, nil, nil, err
	}

	elbow, err := e.ElbowSweep(ctx, scored)
	if err != nil {
		return nil, nil, nil, err
	}

	scored, err = e.Cluster(ctx, scored)
	if err != nil {
		return nil, nil, nil, err
	}

	profiles := Profiles(scored)

	e.logger.InfoContext(ctx, "segmentation complete",
		"customers", len(scored),
		"clusters", e.clusters,
		"duration", time.Since(start))

	return scored, elbow, profiles, nil
}
