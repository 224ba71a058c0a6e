package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/ethanbaker/sourcing/internal/testdata"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCandidates(t *testing.T) {
	synced := time.Date(2025, time.May, 4, 10, 30, 0, 0, time.UTC)
	integration := &sourcing.Integration{ID: 1, Platform: sourcing.PlatformHHRu}

	var stored []*sourcing.ExternalCandidate
	for i, generated := range testdata.Candidates(3, sourcing.PlatformHHRu, 4) {
		candidate := sourcing.NewExternalCandidate(integration, generated, synced)
		candidate.ID = uint(i + 1)
		stored = append(stored, candidate)
	}
	stored[0].IsImported = true

	var buf bytes.Buffer
	require.NoError(t, Candidates(&buf, stored))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, headers, rows[0])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "hh_ru", first[1])
	assert.Equal(t, stored[0].ExternalID, first[2])
	assert.Equal(t, stored[0].FirstName, first[3])
	assert.Equal(t, "TRUE", first[15])
	assert.Equal(t, "2025-05-04 10:30:00", first[16])

	// The fourth generated person has no known experience
	assert.Empty(t, rows[4][10])
}

func TestCandidatesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Candidates(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
