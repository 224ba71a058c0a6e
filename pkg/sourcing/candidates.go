package sourcing

import "context"

// ListCandidates returns stored candidates, newest first
func (s *Service) ListCandidates(ctx context.Context, filter CandidateFilter) ([]*ExternalCandidate, error) {
	if filter.Platform != "" && !filter.Platform.Valid() {
		return nil, NewValidationError("unknown platform filter")
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Limit = clampLimit(filter.Limit, DefaultSearchLimit, MaxSearchLimit)

	return s.store.ListCandidates(ctx, filter)
}

// GetCandidate returns one stored candidate
func (s *Service) GetCandidate(ctx context.Context, id uint) (*ExternalCandidate, error) {
	return s.store.GetCandidate(ctx, id)
}

// Stats builds an overview across all integrations
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	integrations, err := s.store.ListIntegrations(ctx)
	if err != nil {
		return nil, err
	}

	imported := true
	stats := &Stats{
		TotalIntegrations: len(integrations),
		PlatformStats:     make(map[Platform]PlatformStats, len(integrations)),
	}

	if stats.TotalCandidatesFound, err = s.store.CountCandidates(ctx, CandidateFilter{}); err != nil {
		return nil, err
	}
	if stats.TotalCandidatesImported, err = s.store.CountCandidates(ctx, CandidateFilter{Imported: &imported}); err != nil {
		return nil, err
	}

	for _, integration := range integrations {
		if integration.IsActive {
			stats.ActiveIntegrations++
		}
		if integration.LastSyncAt != nil && (stats.LastSyncAt == nil || integration.LastSyncAt.After(*stats.LastSyncAt)) {
			stats.LastSyncAt = integration.LastSyncAt
		}

		total, err := s.store.CountCandidates(ctx, CandidateFilter{Platform: integration.Platform})
		if err != nil {
			return nil, err
		}
		importedCount, err := s.store.CountCandidates(ctx, CandidateFilter{Platform: integration.Platform, Imported: &imported})
		if err != nil {
			return nil, err
		}

		stats.PlatformStats[integration.Platform] = PlatformStats{
			TotalCandidates:    total,
			ImportedCandidates: importedCount,
			IsActive:           integration.IsActive,
			LastSyncAt:         integration.LastSyncAt,
			ErrorCount:         integration.ErrorCount,
		}
	}

	return stats, nil
}
