package sourcing

import "context"

// appendLog writes an audit entry. A failing audit write is logged, never returned.
func (s *Service) appendLog(ctx context.Context, integrationID uint, op LogOperation, status LogStatus, message string, details map[string]any) {
	entry := &IntegrationLog{
		IntegrationID: integrationID,
		Operation:     op,
		Status:        status,
		Message:       message,
		Details:       details,
		CreatedAt:     s.now(),
	}

	if err := s.store.AppendLog(ctx, entry); err != nil {
		s.logger.Warn("failed to append integration log",
			"integration_id", integrationID, "operation", op, "error", err)
	}
}

// Logs returns the newest audit entries of an integration first
func (s *Service) Logs(ctx context.Context, integrationID uint, limit int) ([]*IntegrationLog, error) {
	if _, err := s.store.GetIntegration(ctx, integrationID); err != nil {
		return nil, err
	}

	return s.store.ListLogs(ctx, integrationID, clampLimit(limit, DefaultLogLimit, MaxSearchLimit))
}
