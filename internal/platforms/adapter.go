package platforms

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/ethanbaker/sourcing/pkg/logger"
	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"golang.org/x/time/rate"
)

const limiterBurst = 5

// ErrNotConfigured is returned by live sources that lack credentials
var ErrNotConfigured = errors.New("platform credentials are not configured")

// LiveSource performs the remote search of one platform
type LiveSource interface {
	Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error)
}

// Options are shared by every adapter built from a Config
type Options struct {
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Adapter tries the live source of a platform and degrades to its fallback
// dataset when the call is disabled, unconfigured, slow or broken
type Adapter struct {
	platform sourcing.Platform
	live     LiveSource
	fallback []sourcing.NormalizedCandidate
	settings Settings
	limiter  *rate.Limiter
	logger   logger.Logger
	metrics  *metrics.Metrics
}

var _ sourcing.Adapter = (*Adapter)(nil)

// NewAdapter creates an adapter. live may be nil for fallback-only platforms.
func NewAdapter(platform sourcing.Platform, live LiveSource, fallback []sourcing.NormalizedCandidate, settings Settings, opts *Options) *Adapter {
	if opts == nil {
		opts = &Options{}
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.RequestsPerMinute <= 0 {
		settings.RequestsPerMinute = DefaultRequestsPerMinute
	}

	perRequest := time.Minute / time.Duration(settings.RequestsPerMinute)

	return &Adapter{
		platform: platform,
		live:     live,
		fallback: fallback,
		settings: settings,
		limiter:  rate.NewLimiter(rate.Every(perRequest), limiterBurst),
		logger:   logger.Component(opts.Logger, "adapter").With("platform", string(platform)),
		metrics:  opts.Metrics,
	}
}

// Platform returns the platform served by the adapter
func (a *Adapter) Platform() sourcing.Platform {
	return a.platform
}

// Search returns matching candidates. Remote failures never leave this method;
// only a cancelled caller context does.
func (a *Adapter) Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	criteria := req.Criteria.Normalized()

	if a.live != nil && a.settings.LiveEnabled() {
		results, err := a.searchLive(ctx, req)
		if err == nil {
			return criteria.Filter(results, req.Limit), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		reason := fallbackReason(err)
		a.metrics.RecordFallback(string(a.platform), reason)
		a.logger.Warn("live search failed, using fallback data", "reason", reason, "error", err)
	} else {
		a.metrics.RecordFallback(string(a.platform), "disabled")
		a.logger.Debug("live search disabled, using fallback data")
	}

	return criteria.Filter(cloneCandidates(a.fallback), req.Limit), nil
}

type liveResult struct {
	candidates []sourcing.NormalizedCandidate
	err        error
}

// searchLive runs the remote call under the rate limit and timeout. A source
// that ignores its context is abandoned when the deadline passes.
func (a *Adapter) searchLive(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, a.settings.Timeout)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, sourcing.NewTransientRemoteError(a.platform, fmt.Errorf("rate limit: %w", err))
	}

	done := make(chan liveResult, 1)
	go func() {
		candidates, err := a.live.Search(ctx, req)
		done <- liveResult{candidates: candidates, err: err}
	}()

	select {
	case result := <-done:
		if result.err != nil {
			return nil, sourcing.NewTransientRemoteError(a.platform, result.err)
		}
		return result.candidates, nil
	case <-ctx.Done():
		return nil, sourcing.NewTransientRemoteError(a.platform, ctx.Err())
	}
}

func fallbackReason(err error) string {
	var status *StatusError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &status) && (status.Code == 401 || status.Code == 403):
		return "unauthorized"
	case errors.As(err, &status):
		return "status"
	default:
		return "error"
	}
}

func cloneCandidates(in []sourcing.NormalizedCandidate) []sourcing.NormalizedCandidate {
	out := make([]sourcing.NormalizedCandidate, len(in))
	for i, candidate := range in {
		out[i] = candidate
		out[i].Skills = slices.Clone(candidate.Skills)
		out[i].RawData = maps.Clone(candidate.RawData)
	}
	return out
}
