package sourcing

import (
	"context"
	"time"
)

// StoreInterface persists integrations, their candidates and the audit trail.
//
// Lookups of missing rows return a NotFound DomainError. Counter and status
// mutations are single statements so concurrent writers never lose updates.
type StoreInterface interface {
	// Integrations
	CreateIntegration(ctx context.Context, integration *Integration) error // Conflict when the platform is taken
	GetIntegration(ctx context.Context, id uint) (*Integration, error)
	FindIntegrationByPlatform(ctx context.Context, platform Platform) (*Integration, error)
	ListIntegrations(ctx context.Context) ([]*Integration, error)
	ListDueIntegrations(ctx context.Context, now time.Time) ([]*Integration, error)
	SaveIntegrationSettings(ctx context.Context, integration *Integration) error // Never touches counters or status
	DeleteIntegration(ctx context.Context, id uint) error                        // Cascades candidates and logs

	AddCandidatesFound(ctx context.Context, id uint, n int) error
	AddCandidatesImported(ctx context.Context, id uint, n int) error
	MarkSyncSucceeded(ctx context.Context, id uint, at time.Time, next *time.Time) error
	MarkSyncFailed(ctx context.Context, id uint, message string) error

	// Candidates
	FindCandidate(ctx context.Context, platform Platform, externalID string) (*ExternalCandidate, error)
	GetCandidate(ctx context.Context, id uint) (*ExternalCandidate, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*ExternalCandidate, error)
	CountCandidates(ctx context.Context, filter CandidateFilter) (int64, error)
	SaveCandidate(ctx context.Context, candidate *ExternalCandidate) error
	MarkCandidateImported(ctx context.Context, id uint, userID uint, at time.Time) error // Conflict when already imported

	// Audit
	CreateImport(ctx context.Context, record *CandidateImport) error
	ListImports(ctx context.Context, candidateID uint) ([]*CandidateImport, error)
	AppendLog(ctx context.Context, entry *IntegrationLog) error
	ListLogs(ctx context.Context, integrationID uint, limit int) ([]*IntegrationLog, error)

	// Transaction runs fn atomically. The context handed to fn carries the
	// transaction and must be used for every call made inside it.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
