package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StageError
		expected string
	}{
		{
			name:     "with cause",
			err:      NewLoad(CodeLoadFailed, "cannot read input", io.ErrUnexpectedEOF),
			expected: "[LOAD] cannot read input: unexpected EOF",
		},
		{
			name:     "without cause",
			err:      NewSegment(CodeSegmentDegenerate, "too few distinct recency values", nil),
			expected: "[SEGMENT] too few distinct recency values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestStageError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewExport("write customer table", cause)

	assert.True(t, errors.Is(err, cause))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageExport, se.Stage)
	assert.Equal(t, CodeExportFailed, se.Code)
}

func TestStageError_Fatal(t *testing.T) {
	tests := []struct {
		err   *StageError
		fatal bool
	}{
		{NewLoad(CodeLoadFailed, "x", nil), true},
		{NewClean("x", nil), true},
		{NewSegment(CodeSegmentDegenerate, "x", nil), true},
		{NewEnrich("x", nil), false},
		{NewReport("x", nil), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Stage), func(t *testing.T) {
			assert.Equal(t, tt.fatal, tt.err.Fatal())
		})
	}
}

func TestClassificationHelpers(t *testing.T) {
	base := NewSegment(CodeSegmentDegenerate, "recency quintiles collapsed", nil)
	wrapped := fmt.Errorf("score customers: %w", base)

	assert.Equal(t, StageSegment, StageOf(wrapped))
	assert.Equal(t, CodeSegmentDegenerate, CodeOf(wrapped))
	assert.True(t, IsStage(wrapped, StageSegment))
	assert.True(t, IsDegenerate(wrapped))

	plain := errors.New("plain")
	assert.Equal(t, Stage(""), StageOf(plain))
	assert.Equal(t, "", CodeOf(plain))
	assert.False(t, IsDegenerate(plain))
}
