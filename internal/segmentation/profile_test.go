package segmentation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles(t *testing.T) {
	scored := []ScoredCustomer{
		{CustomerID: "a", Recency: 10, Frequency: 2, Monetary: 100.26, Cluster: 1},
		{CustomerID: "b", Recency: 11, Frequency: 3, Monetary: 200.01, Cluster: 1},
		{CustomerID: "c", Recency: 300, Frequency: 1, Monetary: 50, Cluster: 0},
	}

	profiles := Profiles(scored)
	require.Len(t, profiles, 2)

	// Sorted by cluster label ascending.
	assert.Equal(t, 0, profiles[0].Cluster)
	assert.Equal(t, 1, profiles[1].Cluster)

	assert.Equal(t, 1, profiles[0].Customers)
	assert.Equal(t, 2, profiles[1].Customers)

	assert.InDelta(t, 10.5, profiles[1].MeanRecency, 1e-9)
	assert.InDelta(t, 2.5, profiles[1].MeanFrequency, 1e-9)
	// (100.26+200.01)/2 = 150.135 rounds to 150.1.
	assert.InDelta(t, 150.1, profiles[1].MeanMonetary, 1e-9)
}

func TestProfiles_Empty(t *testing.T) {
	assert.Empty(t, Profiles(nil))
}

func TestEngine_Segment_EndToEnd(t *testing.T) {
	engine := NewEngine(nil, WithClusters(4), WithSeed(42))

	scored, elbow, profiles, err := engine.Segment(context.Background(), uniformCustomers())
	require.NoError(t, err)

	require.Len(t, scored, 25)
	require.Len(t, elbow, 10)

	total := 0
	for _, p := range profiles {
		assert.GreaterOrEqual(t, p.Cluster, 0)
		assert.Less(t, p.Cluster, 4)
		total += p.Customers
	}
	assert.Equal(t, 25, total)

	for _, s := range scored {
		assert.GreaterOrEqual(t, s.Cluster, 0)
		assert.Less(t, s.Cluster, 4)
		assert.Len(t, s.RFMCode, 3)
		assert.NotEmpty(t, s.Segment)
	}
}
