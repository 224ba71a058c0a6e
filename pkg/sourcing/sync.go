package sourcing

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

// RunSync runs one search-and-persist cycle with the integration's stored
// search defaults and moves the integration to ACTIVE or ERROR.
func (s *Service) RunSync(ctx context.Context, id uint) (*SyncResult, error) {
	integration, err := s.store.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, NewValidationError(fmt.Sprintf("integration %d is disabled", id))
	}

	unlock, err := s.locker.Lock(ctx, integrationLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock; settings may have changed while waiting
	integration, err = s.store.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, NewValidationError(fmt.Sprintf("integration %d is disabled", id))
	}

	runID := uuid.NewString()
	started := time.Now()
	s.logger.Debug("sync started", "integration_id", id, "platform", integration.Platform, "run_id", runID)

	stored, err := s.collect(ctx, integration, integration.SearchDefaults, s.syncLimit)
	if err != nil {
		return nil, s.failSync(ctx, integration, runID, started, err)
	}

	now := s.now()
	var next *time.Time
	if integration.AutoSync {
		n := now.Add(time.Duration(integration.SyncIntervalHours) * time.Hour)
		next = &n
	}

	if err := s.store.MarkSyncSucceeded(ctx, id, now, next); err != nil {
		return nil, s.failSync(ctx, integration, runID, started, err)
	}

	s.appendLog(ctx, id, OperationSync, LogSuccess,
		fmt.Sprintf("Sync completed. Found %d candidates", len(stored)),
		map[string]any{"run_id": runID, "count": len(stored)})
	s.metrics.RecordSync(string(integration.Platform), true, time.Since(started))
	s.logger.Info("sync completed", "integration_id", id, "run_id", runID, "count", len(stored))

	return &SyncResult{
		IntegrationID:   id,
		RunID:           runID,
		Status:          StatusActive,
		CandidatesFound: len(stored),
		LastSyncAt:      now,
		NextSyncAt:      next,
	}, nil
}

// failSync records a failed run and returns the cause unchanged
func (s *Service) failSync(ctx context.Context, integration *Integration, runID string, started time.Time, cause error) error {
	bctx, cancel := s.detached(ctx)
	defer cancel()

	if err := s.store.MarkSyncFailed(bctx, integration.ID, cause.Error()); err != nil {
		s.logger.Error("failed to record sync failure", "integration_id", integration.ID, "error", err)
	}

	s.appendLog(bctx, integration.ID, OperationSync, LogError,
		fmt.Sprintf("Sync failed: %v", cause),
		map[string]any{"run_id": runID, "error": cause.Error()})
	s.metrics.RecordSync(string(integration.Platform), false, time.Since(started))
	s.logger.Error("sync failed", "integration_id", integration.ID, "run_id", runID, "error", cause)
	sentry.CaptureException(cause)

	return cause
}

// SyncStatus reports sync health and stored candidate counts of an integration
func (s *Service) SyncStatus(ctx context.Context, id uint) (*SyncStatus, error) {
	integration, err := s.store.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}

	found, err := s.store.CountCandidates(ctx, CandidateFilter{IntegrationID: &id})
	if err != nil {
		return nil, err
	}

	imported := true
	importedCount, err := s.store.CountCandidates(ctx, CandidateFilter{IntegrationID: &id, Imported: &imported})
	if err != nil {
		return nil, err
	}

	return &SyncStatus{
		IntegrationID:      integration.ID,
		Platform:           integration.Platform,
		Status:             integration.Status,
		LastSyncAt:         integration.LastSyncAt,
		NextSyncAt:         integration.NextSyncAt,
		CandidatesFound:    found,
		CandidatesImported: importedCount,
		ErrorCount:         integration.ErrorCount,
		ErrorMessage:       integration.LastError,
	}, nil
}

// DueIntegrations lists active auto-sync integrations whose next run is due
func (s *Service) DueIntegrations(ctx context.Context) ([]*Integration, error) {
	return s.store.ListDueIntegrations(ctx, s.now())
}
