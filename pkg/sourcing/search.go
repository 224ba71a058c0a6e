package sourcing

import (
	"context"
	"fmt"
	"strings"
)

// Search runs a search against the active integration of a platform and
// persists every result
func (s *Service) Search(ctx context.Context, platform Platform, criteria SearchCriteria, limit int) ([]*ExternalCandidate, error) {
	if !platform.Valid() {
		return nil, NewValidationError(fmt.Sprintf("unsupported platform '%s'", platform))
	}

	integration, err := s.store.FindIntegrationByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, NewNotFoundError(fmt.Sprintf("active integration for platform '%s'", platform))
	}

	return s.search(ctx, integration, criteria, limit)
}

// SearchIntegration runs a search through a specific integration
func (s *Service) SearchIntegration(ctx context.Context, id uint, criteria SearchCriteria, limit int) ([]*ExternalCandidate, error) {
	integration, err := s.store.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, NewValidationError(fmt.Sprintf("integration %d is disabled", id))
	}

	return s.search(ctx, integration, criteria, limit)
}

func (s *Service) search(ctx context.Context, integration *Integration, criteria SearchCriteria, limit int) ([]*ExternalCandidate, error) {
	criteria = criteria.Normalized()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, integrationLockKey(integration.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	stored, err := s.collect(ctx, integration, criteria, clampLimit(limit, DefaultSearchLimit, MaxSearchLimit))
	if err != nil {
		bctx, cancel := s.detached(ctx)
		defer cancel()
		s.appendLog(bctx, integration.ID, OperationSearch, LogError,
			fmt.Sprintf("Search failed: %v", err), map[string]any{"error": err.Error()})
		return nil, err
	}

	s.appendLog(ctx, integration.ID, OperationSearch, LogSuccess,
		fmt.Sprintf("Found %d candidates", len(stored)),
		map[string]any{
			"count":     len(stored),
			"keywords":  criteria.Keywords,
			"locations": criteria.Locations,
		})

	return stored, nil
}

// collect asks the adapter for candidates and upserts them. The caller holds
// the integration lock.
func (s *Service) collect(ctx context.Context, integration *Integration, criteria SearchCriteria, limit int) ([]*ExternalCandidate, error) {
	adapter, err := s.adapters.Lookup(integration.Platform)
	if err != nil {
		return nil, err
	}

	creds, err := s.openCredentials(integration.Credentials)
	if err != nil {
		return nil, err
	}

	results, err := adapter.Search(ctx, SearchRequest{Criteria: criteria, Limit: limit, Credentials: creds})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", integration.Platform, err)
	}

	stored := make([]*ExternalCandidate, 0, len(results))
	for _, result := range results {
		candidate, err := s.upsert(ctx, integration, result)
		if err != nil {
			return nil, err
		}
		stored = append(stored, candidate)
	}

	if err := s.store.AddCandidatesFound(ctx, integration.ID, len(stored)); err != nil {
		return nil, err
	}

	return stored, nil
}

// UpsertCandidate stores a candidate for an integration, merging it into an
// existing record with the same platform and external id
func (s *Service) UpsertCandidate(ctx context.Context, integrationID uint, candidate NormalizedCandidate) (*ExternalCandidate, error) {
	integration, err := s.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, integrationLockKey(integration.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.upsert(ctx, integration, candidate)
}

// upsert is the merge step. The platform half of the key always comes from
// the integration, never from the record.
func (s *Service) upsert(ctx context.Context, integration *Integration, in NormalizedCandidate) (*ExternalCandidate, error) {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	if in.ExternalID == "" {
		return nil, NewValidationError("candidate external id cannot be empty")
	}

	var out *ExternalCandidate
	created := false
	err := s.store.Transaction(ctx, func(ctx context.Context) error {
		now := s.now()

		existing, err := s.store.FindCandidate(ctx, integration.Platform, in.ExternalID)
		switch {
		case err == nil:
			id := integration.ID
			existing.IntegrationID = &id
			existing.Apply(in, now)
			out = existing

		case IsNotFound(err):
			out = NewExternalCandidate(integration, in, now)
			created = true

		default:
			return err
		}

		return s.store.SaveCandidate(ctx, out)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert candidate '%s': %w", in.ExternalID, err)
	}

	s.metrics.RecordUpsert(string(integration.Platform), created)
	return out, nil
}
