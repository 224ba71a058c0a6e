package testdata

import (
	"context"
	"testing"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatesAreReproducible(t *testing.T) {
	first := Candidates(7, sourcing.PlatformHHRu, 10)
	second := Candidates(7, sourcing.PlatformHHRu, 10)
	require.Len(t, first, 10)
	assert.Equal(t, first, second)

	other := Candidates(8, sourcing.PlatformHHRu, 10)
	assert.NotEqual(t, first, other)

	seen := map[string]bool{}
	for i, candidate := range first {
		assert.False(t, seen[candidate.ExternalID])
		seen[candidate.ExternalID] = true
		assert.NotEmpty(t, candidate.Skills)
		if i%4 == 3 {
			assert.Nil(t, candidate.ExperienceYears)
			assert.Empty(t, candidate.Email)
		} else {
			assert.LessOrEqual(t, *candidate.SalaryMin, *candidate.SalaryMax)
		}
	}
}

func TestAdapterFilters(t *testing.T) {
	adapter := NewAdapter(1, sourcing.PlatformSuperJob, 40)
	assert.Equal(t, sourcing.PlatformSuperJob, adapter.Platform())

	results, err := adapter.Search(context.Background(), sourcing.SearchRequest{
		Criteria: sourcing.SearchCriteria{Keywords: []string{"python"}},
		Limit:    5,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 5)
	for _, candidate := range results {
		assert.True(t, sourcing.SearchCriteria{Keywords: []string{"python"}}.Matches(candidate))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = adapter.Search(ctx, sourcing.SearchRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
