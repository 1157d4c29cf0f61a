package errors

import (
	"errors"
	"fmt"
)

// Stage identifies which pipeline stage produced an error.
type Stage string

const (
	StageLoad    Stage = "LOAD"
	StageClean   Stage = "CLEAN"
	StageEnrich  Stage = "ENRICH"
	StageSegment Stage = "SEGMENT"
	StageReport  Stage = "REPORT"
	StageExport  Stage = "EXPORT"
	StageConfig  Stage = "CONFIG"
)

// Error codes used across stages. Codes are stable identifiers for callers
// that need to branch on a specific failure, independent of message text.
const (
	CodeLoadFailed        = "LOAD_FAILED"
	CodeLoadEmpty         = "LOAD_EMPTY"
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeCleanFailed       = "CLEAN_FAILED"
	CodeEnrichFailed      = "ENRICH_FAILED"
	CodeSegmentDegenerate = "SEGMENT_DEGENERATE"
	CodeSegmentFailed     = "SEGMENT_FAILED"
	CodeReportFailed      = "REPORT_FAILED"
	CodeExportFailed      = "EXPORT_FAILED"
	CodeConfigInvalid     = "CONFIG_INVALID"
)

// StageError is a classified pipeline error. Every designed failure path
// surfaces as a StageError so callers can distinguish the taxonomy kinds
// (load, clean, enrich, segment, report) without parsing message text.
type StageError struct {
	Stage   Stage
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with StageError
func (e *StageError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error aborts the whole pipeline. Enrichment
// errors degrade to a sentinel result at the stage boundary and report
// errors are contained per chart; everything else is fatal.
func (e *StageError) Fatal() bool {
	switch e.Stage {
	case StageEnrich, StageReport:
		return false
	default:
		return true
	}
}

// New creates a new StageError
func New(stage Stage, code, message string, cause error) *StageError {
	return &StageError{
		Stage:   stage,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewLoad creates a load-stage error
func NewLoad(code, message string, cause error) *StageError {
	return New(StageLoad, code, message, cause)
}

// NewClean creates a cleaning-stage error
func NewClean(message string, cause error) *StageError {
	return New(StageClean, CodeCleanFailed, message, cause)
}

// NewEnrich creates an enrichment-stage error
func NewEnrich(message string, cause error) *StageError {
	return New(StageEnrich, CodeEnrichFailed, message, cause)
}

// NewSegment creates a segmentation-stage error
func NewSegment(code, message string, cause error) *StageError {
	return New(StageSegment, code, message, cause)
}

// NewReport creates a reporting-stage error
func NewReport(message string, cause error) *StageError {
	return New(StageReport, CodeReportFailed, message, cause)
}

// NewExport creates an export-stage error
func NewExport(message string, cause error) *StageError {
	return New(StageExport, CodeExportFailed, message, cause)
}

// StageOf returns the stage of a classified error, or an empty Stage when
// the error carries no classification.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// CodeOf returns the code of a classified error, or "" when unclassified.
func CodeOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsStage reports whether err is classified under the given stage.
func IsStage(err error, stage Stage) bool {
	return StageOf(err) == stage
}

// IsDegenerate reports whether err is the degenerate quantile binning
// failure from RFM scoring.
func IsDegenerate(err error) bool {
	return CodeOf(err) == CodeSegmentDegenerate
}
