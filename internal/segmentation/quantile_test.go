package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuintileBuckets_Uniform(t *testing.T) {
	// 25 uniformly distributed values must fill every bucket with exactly 5.
	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i + 1)
	}

	buckets, err := quintileBuckets(values)
	require.NoError(t, err)

	counts := make([]int, quintiles)
	for _, b := range buckets {
		counts[b]++
	}
	for b, count := range counts {
		assert.Equal(t, 5, count, "bucket %d", b)
	}

	// Bucket assignment is monotone in the value.
	assert.Equal(t, 0, buckets[0])
	assert.Equal(t, 0, buckets[4])
	assert.Equal(t, 1, buckets[5])
	assert.Equal(t, 4, buckets[24])
}

func TestQuintileBuckets_EqualValuesShareBucket(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 5, 5}

	buckets, err := quintileBuckets(values)
	require.NoError(t, err)

	assert.Equal(t, buckets[4], buckets[10])
	assert.Equal(t, buckets[4], buckets[11])
}

func TestQuintileBuckets_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"all identical", []float64{3, 3, 3, 3, 3, 3}},
		{"two groups", []float64{1, 1, 1, 2, 2, 2}},
		{"too few values", []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quintileBuckets(tt.values)
			require.Error(t, err)
		})
	}
}

func TestInterpolatedQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 1.0, interpolatedQuantile(sorted, 0), 1e-9)
	assert.InDelta(t, 5.0, interpolatedQuantile(sorted, 1), 1e-9)
	assert.InDelta(t, 3.0, interpolatedQuantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 1.8, interpolatedQuantile(sorted, 0.2), 1e-9)
}

func TestRankFirst(t *testing.T) {
	t.Run("distinct values", func(t *testing.T) {
		ranks := rankFirst([]float64{30, 10, 20})
		assert.Equal(t, []float64{3, 1, 2}, ranks)
	})

	t.Run("ties break by original position", func(t *testing.T) {
		ranks := rankFirst([]float64{5, 5, 5, 1})
		assert.Equal(t, []float64{2, 3, 4, 1}, ranks)
	})

	t.Run("ranks never duplicate", func(t *testing.T) {
		ranks := rankFirst([]float64{2, 2, 2, 2, 2, 2})
		seen := make(map[float64]bool)
		for _, r := range ranks {
			assert.False(t, seen[r])
			seen[r] = true
		}
	})
}
