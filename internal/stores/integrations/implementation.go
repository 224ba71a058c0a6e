package integrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethanbaker/sourcing/internal/stores/database"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsColumns are written by SaveIntegrationSettings. Counters and status are left alone.
var settingsColumns = []string{
	"name", "description", "is_active",
	"api_key", "api_secret", "access_token", "refresh_token",
	"search_defaults", "auto_sync", "sync_interval_hours", "next_sync_at",
	"updated_at",
}

// candidateColumns are written when an existing candidate is re-synced. Import state is owned by MarkCandidateImported.
var candidateColumns = []string{
	"integration_id",
	"first_name", "last_name", "email", "phone", "location",
	"current_position", "current_company", "experience_years", "skills",
	"salary_min", "salary_max", "summary",
	"profile_url", "resume_url", "linkedin_url", "github_url",
	"raw_data", "last_synced_at", "updated_at",
}

var _ sourcing.StoreInterface = (*Store)(nil)

// Store persists integrations, candidates and the audit trail with GORM
type Store struct {
	db *gorm.DB
}

// NewStore creates a new integrations store on an open connection and migrates its tables
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	store := &Store{db: db}

	// Auto-migrate tables
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// migrate creates or updates the required database tables
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&IntegrationModel{},
		&ExternalCandidateModel{},
		&CandidateImportModel{},
		&IntegrationLogModel{},
	)
}

// DB exposes the connection so other stores can share transactions
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	return database.Close(s.db)
}

// Transaction runs fn in a transaction carried by the context
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.Transaction(ctx, s.db, fn)
}

// conn returns the connection for ctx, row-locking reads when inside a transaction
func (s *Store) conn(ctx context.Context, lock bool) *gorm.DB {
	db := database.Conn(ctx, s.db)
	if lock && database.InTx(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

/** Integrations */

// CreateIntegration inserts a new integration, failing with a conflict when the platform is taken
func (s *Store) CreateIntegration(ctx context.Context, integration *sourcing.Integration) error {
	model := integrationToModel(integration)

	if err := s.conn(ctx, false).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return sourcing.NewConflictError(fmt.Sprintf("integration for platform '%s' already exists", integration.Platform))
		}
		return fmt.Errorf("failed to create integration: %w", err)
	}

	integration.ID = model.ID
	integration.CreatedAt = model.CreatedAt
	integration.UpdatedAt = model.UpdatedAt
	return nil
}

// GetIntegration retrieves an integration by ID
func (s *Store) GetIntegration(ctx context.Context, id uint) (*sourcing.Integration, error) {
	var model IntegrationModel
	if err := s.conn(ctx, true).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sourcing.NewNotFoundError("integration")
		}
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return model.toDomain(), nil
}

// FindIntegrationByPlatform retrieves the integration configured for a platform
func (s *Store) FindIntegrationByPlatform(ctx context.Context, platform sourcing.Platform) (*sourcing.Integration, error) {
	var model IntegrationModel
	if err := s.conn(ctx, false).Where("platform = ?", string(platform)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sourcing.NewNotFoundError("integration")
		}
		return nil, fmt.Errorf("failed to find integration: %w", err)
	}
	return model.toDomain(), nil
}

// ListIntegrations returns every integration ordered by ID
func (s *Store) ListIntegrations(ctx context.Context) ([]*sourcing.Integration, error) {
	var models []IntegrationModel
	if err := s.conn(ctx, false).Order("id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return integrationsToDomain(models), nil
}

// ListDueIntegrations returns active auto-sync integrations whose next sync is unset or not after now
func (s *Store) ListDueIntegrations(ctx context.Context, now time.Time) ([]*sourcing.Integration, error) {
	var models []IntegrationModel
	err := s.conn(ctx, false).
		Where("is_active = ? AND auto_sync = ?", true, true).
		Where("next_sync_at IS NULL OR next_sync_at <= ?", now).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due integrations: %w", err)
	}
	return integrationsToDomain(models), nil
}

// SaveIntegrationSettings writes the user editable columns of an integration
func (s *Store) SaveIntegrationSettings(ctx context.Context, integration *sourcing.Integration) error {
	model := integrationToModel(integration)

	result := s.conn(ctx, false).
		Model(&IntegrationModel{ID: integration.ID}).
		Select(settingsColumns).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save integration: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return s.integrationExists(ctx, integration.ID)
	}
	return nil
}

// DeleteIntegration removes an integration together with its candidates and logs
func (s *Store) DeleteIntegration(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		db := s.conn(ctx, false)

		if err := db.Where("integration_id = ?", id).Delete(&IntegrationLogModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete integration logs: %w", err)
		}
		if err := db.Where("integration_id = ?", id).Delete(&ExternalCandidateModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete integration candidates: %w", err)
		}

		result := db.Delete(&IntegrationModel{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete integration: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return sourcing.NewNotFoundError("integration")
		}
		return nil
	})
}

// AddCandidatesFound atomically increments the found counter
func (s *Store) AddCandidatesFound(ctx context.Context, id uint, n int) error {
	return s.increment(ctx, id, "total_candidates_found", n)
}

// AddCandidatesImported atomically increments the imported counter
func (s *Store) AddCandidatesImported(ctx context.Context, id uint, n int) error {
	return s.increment(ctx, id, "total_candidates_imported", n)
}

func (s *Store) increment(ctx context.Context, id uint, column string, n int) error {
	if n == 0 {
		return nil
	}

	result := s.conn(ctx, false).
		Model(&IntegrationModel{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", n))
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return sourcing.NewNotFoundError("integration")
	}
	return nil
}

// MarkSyncSucceeded moves the integration to ACTIVE and clears error bookkeeping
func (s *Store) MarkSyncSucceeded(ctx context.Context, id uint, at time.Time, next *time.Time) error {
	result := s.conn(ctx, false).
		Model(&IntegrationModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":       string(sourcing.StatusActive),
			"last_sync_at": at,
			"next_sync_at": next,
			"error_count":  0,
			"last_error":   "",
			"updated_at":   at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark sync succeeded: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.integrationExists(ctx, id)
	}
	return nil
}

// MarkSyncFailed moves the integration to ERROR and increments its error count
func (s *Store) MarkSyncFailed(ctx context.Context, id uint, message string) error {
	result := s.conn(ctx, false).
		Model(&IntegrationModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"status":      string(sourcing.StatusError),
			"error_count": gorm.Expr("error_count + ?", 1),
			"last_error":  message,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark sync failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return sourcing.NewNotFoundError("integration")
	}
	return nil
}

func (s *Store) integrationExists(ctx context.Context, id uint) error {
	var count int64
	if err := s.conn(ctx, false).Model(&IntegrationModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check integration: %w", err)
	}
	if count == 0 {
		return sourcing.NewNotFoundError("integration")
	}
	return nil
}

/** Candidates */

// FindCandidate retrieves a candidate by its natural key
func (s *Store) FindCandidate(ctx context.Context, platform sourcing.Platform, externalID string) (*sourcing.ExternalCandidate, error) {
	var model ExternalCandidateModel
	err := s.conn(ctx, true).
		Where("platform = ? AND external_id = ?", string(platform), externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sourcing.NewNotFoundError("candidate")
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return model.toDomain(), nil
}

// GetCandidate retrieves a candidate by ID
func (s *Store) GetCandidate(ctx context.Context, id uint) (*sourcing.ExternalCandidate, error) {
	var model ExternalCandidateModel
	if err := s.conn(ctx, true).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sourcing.NewNotFoundError("candidate")
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return model.toDomain(), nil
}

// ListCandidates returns candidates matching the filter, newest first
func (s *Store) ListCandidates(ctx context.Context, filter sourcing.CandidateFilter) ([]*sourcing.ExternalCandidate, error) {
	query := s.filterCandidates(ctx, filter).Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []ExternalCandidateModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	candidates := make([]*sourcing.ExternalCandidate, len(models))
	for i := range models {
		candidates[i] = models[i].toDomain()
	}
	return candidates, nil
}

// CountCandidates counts candidates matching the filter, ignoring limit and offset
func (s *Store) CountCandidates(ctx context.Context, filter sourcing.CandidateFilter) (int64, error) {
	var count int64
	if err := s.filterCandidates(ctx, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return count, nil
}

func (s *Store) filterCandidates(ctx context.Context, filter sourcing.CandidateFilter) *gorm.DB {
	query := s.conn(ctx, false).Model(&ExternalCandidateModel{})
	if filter.Platform != "" {
		query = query.Where("platform = ?", string(filter.Platform))
	}
	if filter.IntegrationID != nil {
		query = query.Where("integration_id = ?", *filter.IntegrationID)
	}
	if filter.Imported != nil {
		query = query.Where("is_imported = ?", *filter.Imported)
	}
	return query
}

// SaveCandidate inserts a new candidate or updates the synced fields of an existing one
func (s *Store) SaveCandidate(ctx context.Context, candidate *sourcing.ExternalCandidate) error {
	model := candidateToModel(candidate)
	db := s.conn(ctx, false)

	if candidate.ID == 0 {
		if err := db.Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return sourcing.NewConflictError(fmt.Sprintf("candidate '%s' already exists on %s", candidate.ExternalID, candidate.Platform))
			}
			return fmt.Errorf("failed to create candidate: %w", err)
		}

		candidate.ID = model.ID
		candidate.CreatedAt = model.CreatedAt
		candidate.UpdatedAt = model.UpdatedAt
		return nil
	}

	result := db.Model(&ExternalCandidateModel{ID: candidate.ID}).Select(candidateColumns).Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update candidate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return sourcing.NewNotFoundError("candidate")
	}
	return nil
}

// MarkCandidateImported flips the imported flag once. A second call fails with a conflict.
func (s *Store) MarkCandidateImported(ctx context.Context, id uint, userID uint, at time.Time) error {
	result := s.conn(ctx, false).
		Model(&ExternalCandidateModel{}).
		Where("id = ? AND is_imported = ?", id, false).
		UpdateColumns(map[string]any{
			"is_imported":      true,
			"imported_user_id": userID,
			"imported_at":      at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark candidate imported: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if _, err := s.GetCandidate(ctx, id); err != nil {
		return err
	}
	return sourcing.NewConflictError("candidate already imported")
}

/** Audit */

// CreateImport records a promotion event
func (s *Store) CreateImport(ctx context.Context, record *sourcing.CandidateImport) error {
	model := &CandidateImportModel{
		CreatedAt:           record.CreatedAt,
		ExternalCandidateID: record.ExternalCandidateID,
		UserID:              record.UserID,
		ImportedBy:          record.ImportedBy,
		Outcome:             string(record.Outcome),
		Notes:               record.Notes,
	}

	if err := s.conn(ctx, false).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create import record: %w", err)
	}

	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	return nil
}

// ListImports returns the promotion events of a candidate, oldest first
func (s *Store) ListImports(ctx context.Context, candidateID uint) ([]*sourcing.CandidateImport, error) {
	var models []CandidateImportModel
	err := s.conn(ctx, false).
		Where("external_candidate_id = ?", candidateID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list import records: %w", err)
	}

	records := make([]*sourcing.CandidateImport, len(models))
	for i := range models {
		records[i] = models[i].toDomain()
	}
	return records, nil
}

// AppendLog adds an audit entry
func (s *Store) AppendLog(ctx context.Context, entry *sourcing.IntegrationLog) error {
	model := &IntegrationLogModel{
		CreatedAt:     entry.CreatedAt,
		IntegrationID: entry.IntegrationID,
		Operation:     string(entry.Operation),
		Status:        string(entry.Status),
		Message:       entry.Message,
	}
	if entry.Details != nil {
		model.Details = datatypes.JSONMap(entry.Details)
	}

	if err := s.conn(ctx, false).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}

	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

// ListLogs returns the newest audit entries of an integration first
func (s *Store) ListLogs(ctx context.Context, integrationID uint, limit int) ([]*sourcing.IntegrationLog, error) {
	query := s.conn(ctx, false).
		Where("integration_id = ?", integrationID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []IntegrationLogModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	logs := make([]*sourcing.IntegrationLog, len(models))
	for i := range models {
		logs[i] = models[i].toDomain()
	}
	return logs, nil
}

func integrationsToDomain(models []IntegrationModel) []*sourcing.Integration {
	out := make([]*sourcing.Integration, len(models))
	for i := range models {
		out[i] = models[i].toDomain()
	}
	return out
}
