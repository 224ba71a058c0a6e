package platforms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(candidates []sourcing.NormalizedCandidate) []string {
	out := make([]string, len(candidates))
	for i, candidate := range candidates {
		out[i] = candidate.ExternalID
	}
	return out
}

func TestFallbackWithoutCredentials(t *testing.T) {
	registry := NewRegistry(&Config{}, nil, nil)
	ctx := context.Background()

	t.Run("lalafo python in Bishkek", func(t *testing.T) {
		adapter, err := registry.Lookup(sourcing.PlatformLalafo)
		require.NoError(t, err)

		req := sourcing.SearchRequest{
			Criteria: sourcing.SearchCriteria{
				Keywords:      []string{"Python"},
				Locations:     []string{"Бишкек"},
				ExperienceMin: intPtr(1),
				ExperienceMax: intPtr(3),
			},
			Limit: 50,
		}

		first, err := adapter.Search(ctx, req)
		require.NoError(t, err)
		// lalafo_103 has no known experience, so no bound excludes it
		assert.Equal(t, []string{"lalafo_101", "lalafo_103"}, ids(first))

		second, err := adapter.Search(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("linkedin python django in Moscow", func(t *testing.T) {
		adapter, err := registry.Lookup(sourcing.PlatformLinkedIn)
		require.NoError(t, err)

		results, err := adapter.Search(ctx, sourcing.SearchRequest{
			Criteria: sourcing.SearchCriteria{
				Keywords:      []string{"Python", "Django"},
				Locations:     []string{"Москва"},
				ExperienceMin: intPtr(2),
				ExperienceMax: intPtr(5),
			},
			Limit: 50,
		})
		require.NoError(t, err)

		var names []string
		for _, candidate := range results {
			names = append(names, candidate.FullName())
		}
		assert.Contains(t, names, "Иван Петров")
		assert.NotContains(t, names, "Анна Смирнова")
	})

	t.Run("limit caps results", func(t *testing.T) {
		adapter, err := registry.Lookup(sourcing.PlatformLinkedIn)
		require.NoError(t, err)

		results, err := adapter.Search(ctx, sourcing.SearchRequest{Limit: 3})
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("fallback data is not shared", func(t *testing.T) {
		adapter, err := registry.Lookup(sourcing.PlatformSuperJob)
		require.NoError(t, err)

		results, err := adapter.Search(ctx, sourcing.SearchRequest{})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		results[0].Skills[0] = "mutated"

		again, err := adapter.Search(ctx, sourcing.SearchRequest{})
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again[0].Skills[0])
	})

	t.Run("platforms without implementation", func(t *testing.T) {
		_, err := registry.Lookup(sourcing.PlatformZarplata)
		assert.True(t, sourcing.IsUnsupportedPlatform(err))
		_, err = registry.Lookup(sourcing.PlatformRabota)
		assert.True(t, sourcing.IsUnsupportedPlatform(err))
	})
}

type stubSource struct {
	results []sourcing.NormalizedCandidate
	err     error
	delay   time.Duration
}

func (s *stubSource) Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	if s.delay > 0 {
		// Ignores ctx on purpose, like a stuck client
		time.Sleep(s.delay)
	}
	return s.results, s.err
}

func TestAdapterDegrades(t *testing.T) {
	ctx := context.Background()
	fallback := []sourcing.NormalizedCandidate{{ExternalID: "fallback_1", Skills: []string{"Go"}}}

	t.Run("live results are filtered", func(t *testing.T) {
		live := &stubSource{results: []sourcing.NormalizedCandidate{
			{ExternalID: "live_1", Skills: []string{"Go"}},
			{ExternalID: "live_2", Skills: []string{"Ruby"}},
		}}
		adapter := NewAdapter(sourcing.PlatformHHRu, live, fallback, Settings{}, nil)

		results, err := adapter.Search(ctx, sourcing.SearchRequest{
			Criteria: sourcing.SearchCriteria{Keywords: []string{"go"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"live_1"}, ids(results))
	})

	t.Run("remote error", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		adapter := NewAdapter(sourcing.PlatformHHRu, &stubSource{err: &StatusError{Code: 503}}, fallback, Settings{}, &Options{Metrics: m})

		results, err := adapter.Search(ctx, sourcing.SearchRequest{})
		require.NoError(t, err)
		assert.Equal(t, []string{"fallback_1"}, ids(results))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFallbacks.WithLabelValues("hh_ru", "status")))
	})

	t.Run("stuck remote times out", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		live := &stubSource{delay: time.Second}
		adapter := NewAdapter(sourcing.PlatformHHRu, live, fallback, Settings{Timeout: 20 * time.Millisecond}, &Options{Metrics: m})

		started := time.Now()
		results, err := adapter.Search(ctx, sourcing.SearchRequest{})
		require.NoError(t, err)
		assert.Less(t, time.Since(started), 500*time.Millisecond)
		assert.Equal(t, []string{"fallback_1"}, ids(results))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFallbacks.WithLabelValues("hh_ru", "timeout")))
	})

	t.Run("live disabled", func(t *testing.T) {
		off := false
		live := &stubSource{results: []sourcing.NormalizedCandidate{{ExternalID: "live_1"}}}
		adapter := NewAdapter(sourcing.PlatformHHRu, live, fallback, Settings{Live: &off}, nil)

		results, err := adapter.Search(ctx, sourcing.SearchRequest{})
		require.NoError(t, err)
		assert.Equal(t, []string{"fallback_1"}, ids(results))
	})

	t.Run("cancelled caller", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		adapter := NewAdapter(sourcing.PlatformHHRu, &stubSource{err: context.Canceled}, fallback, Settings{}, nil)
		_, err := adapter.Search(cancelled, sourcing.SearchRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUnauthorizedFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	m := metrics.New(prometheus.NewRegistry())
	config := &Config{Platforms: map[sourcing.Platform]Settings{
		sourcing.PlatformLinkedIn: {BaseURL: server.URL},
	}}
	registry := NewRegistry(config, server.Client(), &Options{Metrics: m})

	adapter, err := registry.Lookup(sourcing.PlatformLinkedIn)
	require.NoError(t, err)

	results, err := adapter.Search(context.Background(), sourcing.SearchRequest{
		Credentials: sourcing.Credentials{AccessToken: "expired"},
		Limit:       100,
	})
	require.NoError(t, err)
	assert.Len(t, results, len(linkedInFallback()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterFallbacks.WithLabelValues("linkedin", "unauthorized")))
}
