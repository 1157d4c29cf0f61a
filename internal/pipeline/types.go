package pipeline

import (
	"time"

	"retailcli/internal/cleaning"
	"retailcli/internal/dataset"
)

// Stage identifiers in execution order
const (
	StageIDLoad    = "load"
	StageIDClean   = "clean"
	StageIDEnrich  = "enrich"
	StageIDSegment = "segment"
	StageIDExport  = "export"
	StageIDReport  = "report"
)

// Status is the terminal state of one stage execution
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	// StatusDegraded marks a stage that finished with partial results,
	// currently only chart rendering.
	StatusDegraded Status = "degraded"
)

// StageResult records the outcome of a single stage
type StageResult struct {
	ID       string        `json:"id"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"error,omitempty"`
}

// Summary is the complete record of one analysis run
type Summary struct {
	RunID     string        `json:"run_id"`
	Input     string        `json:"input"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Stages    []StageResult `json:"stages"`

	LoadReport  dataset.LoadReport `json:"load_report"`
	CleanReport cleaning.Report    `json:"clean_report"`
	Customers   int                `json:"customers"`
	Clusters    int                `json:"clusters"`
}

// StageStatus returns the recorded status of a stage, or the empty string
// when the stage never ran
func (s *Summary) StageStatus(id string) Status {
	for _, st := range s.Stages {
		if st.ID == id {
			return st.Status
		}
	}
	return ""
}

func (s *Summary) addStage(id string, status Status, duration time.Duration, err error) {
	s.Stages = append(s.Stages, StageResult{
		ID:       id,
		Status:   status,
		Duration: duration,
		Err:      err,
	})
}
