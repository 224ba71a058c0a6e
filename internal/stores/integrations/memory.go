package integrations

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

type memoryTxKey struct{}

// memoryTx journals undo steps for the rows written through one transaction context
type memoryTx struct {
	store *InMemoryStore
	mutex sync.Mutex
	undo  []func()
}

func (tx *memoryTx) record(undo func()) {
	if tx == nil {
		return
	}
	tx.mutex.Lock()
	defer tx.mutex.Unlock()
	tx.undo = append(tx.undo, undo)
}

var _ sourcing.StoreInterface = (*InMemoryStore)(nil)

// InMemoryStore provides an in-memory implementation of sourcing.StoreInterface for unit tests.
//
// Transactions do not isolate reads. A failed transaction reverts only the rows it wrote,
// so concurrent writes made outside it are kept.
type InMemoryStore struct {
	mutex sync.RWMutex

	integrations map[uint]*sourcing.Integration
	candidates   map[uint]*sourcing.ExternalCandidate
	imports      []*sourcing.CandidateImport
	logs         []*sourcing.IntegrationLog

	nextIntegrationID uint
	nextCandidateID   uint
	nextImportID      uint
	nextLogID         uint
}

// NewInMemoryStore creates a new in-memory integrations store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		integrations: make(map[uint]*sourcing.Integration),
		candidates:   make(map[uint]*sourcing.ExternalCandidate),
	}
}

// Transaction runs fn, undoing the writes made through its context when fn fails
func (s *InMemoryStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.journal(ctx) != nil {
		return fn(ctx)
	}

	tx := &memoryTx{store: s}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		s.rollback(tx)
		return err
	}
	return nil
}

func (s *InMemoryStore) journal(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memoryTxKey{}).(*memoryTx)
	if tx == nil || tx.store != s {
		return nil
	}
	return tx
}

func (s *InMemoryStore) rollback(tx *memoryTx) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	tx.mutex.Lock()
	defer tx.mutex.Unlock()

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

/** Integrations */

// CreateIntegration stores a new integration, failing with a conflict when the platform is taken
func (s *InMemoryStore) CreateIntegration(ctx context.Context, integration *sourcing.Integration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.integrations {
		if existing.Platform == integration.Platform {
			return sourcing.NewConflictError(fmt.Sprintf("integration for platform '%s' already exists", integration.Platform))
		}
	}

	now := time.Now().UTC()
	s.nextIntegrationID++
	integration.ID = s.nextIntegrationID
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	if integration.UpdatedAt.IsZero() {
		integration.UpdatedAt = now
	}

	id := integration.ID
	s.integrations[id] = cloneIntegration(integration)
	s.journal(ctx).record(func() { delete(s.integrations, id) })
	return nil
}

// GetIntegration retrieves an integration by ID
func (s *InMemoryStore) GetIntegration(ctx context.Context, id uint) (*sourcing.Integration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	integration, exists := s.integrations[id]
	if !exists {
		return nil, sourcing.NewNotFoundError("integration")
	}
	return cloneIntegration(integration), nil
}

// FindIntegrationByPlatform retrieves the integration configured for a platform
func (s *InMemoryStore) FindIntegrationByPlatform(ctx context.Context, platform sourcing.Platform) (*sourcing.Integration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, integration := range s.integrations {
		if integration.Platform == platform {
			return cloneIntegration(integration), nil
		}
	}
	return nil, sourcing.NewNotFoundError("integration")
}

// ListIntegrations returns every integration ordered by ID
func (s *InMemoryStore) ListIntegrations(ctx context.Context) ([]*sourcing.Integration, error) {
	return s.listIntegrations(func(*sourcing.Integration) bool { return true }), nil
}

// ListDueIntegrations returns active auto-sync integrations whose next sync is unset or not after now
func (s *InMemoryStore) ListDueIntegrations(ctx context.Context, now time.Time) ([]*sourcing.Integration, error) {
	return s.listIntegrations(func(i *sourcing.Integration) bool {
		return i.IsActive && i.AutoSync && (i.NextSyncAt == nil || !i.NextSyncAt.After(now))
	}), nil
}

func (s *InMemoryStore) listIntegrations(keep func(*sourcing.Integration) bool) []*sourcing.Integration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*sourcing.Integration, 0, len(s.integrations))
	for _, integration := range s.integrations {
		if keep(integration) {
			out = append(out, cloneIntegration(integration))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaveIntegrationSettings writes the user editable fields of an integration
func (s *InMemoryStore) SaveIntegrationSettings(ctx context.Context, integration *sourcing.Integration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored, exists := s.integrations[integration.ID]
	if !exists {
		return sourcing.NewNotFoundError("integration")
	}

	previous := cloneIntegration(stored)
	updated := cloneIntegration(integration)
	updated.UpdatedAt = time.Now().UTC()
	if !integration.UpdatedAt.IsZero() {
		updated.UpdatedAt = integration.UpdatedAt
	}
	applySettings(stored, updated)

	id := integration.ID
	s.journal(ctx).record(func() {
		if current, ok := s.integrations[id]; ok {
			applySettings(current, previous)
		}
	})
	return nil
}

func applySettings(dst, src *sourcing.Integration) {
	dst.Name = src.Name
	dst.Description = src.Description
	dst.IsActive = src.IsActive
	dst.Credentials = src.Credentials
	dst.SearchDefaults = cloneCriteria(src.SearchDefaults)
	dst.AutoSync = src.AutoSync
	dst.SyncIntervalHours = src.SyncIntervalHours
	dst.NextSyncAt = clonePtr(src.NextSyncAt)
	dst.UpdatedAt = src.UpdatedAt
}

// DeleteIntegration removes an integration together with its candidates and logs
func (s *InMemoryStore) DeleteIntegration(ctx context.Context, id uint) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	integration, exists := s.integrations[id]
	if !exists {
		return sourcing.NewNotFoundError("integration")
	}

	removed := make(map[uint]*sourcing.ExternalCandidate)
	for candidateID, candidate := range s.candidates {
		if candidate.IntegrationID != nil && *candidate.IntegrationID == id {
			removed[candidateID] = candidate
			delete(s.candidates, candidateID)
		}
	}

	var removedLogs []*sourcing.IntegrationLog
	s.logs = slices.DeleteFunc(s.logs, func(entry *sourcing.IntegrationLog) bool {
		if entry.IntegrationID == id {
			removedLogs = append(removedLogs, entry)
			return true
		}
		return false
	})
	delete(s.integrations, id)

	s.journal(ctx).record(func() {
		s.integrations[id] = integration
		maps.Copy(s.candidates, removed)
		s.logs = append(s.logs, removedLogs...)
		slices.SortFunc(s.logs, func(a, b *sourcing.IntegrationLog) int { return cmp.Compare(a.ID, b.ID) })
	})
	return nil
}

// AddCandidatesFound increments the found counter
func (s *InMemoryStore) AddCandidatesFound(ctx context.Context, id uint, n int) error {
	return s.mutateIntegration(ctx, id, func(i *sourcing.Integration) func(*sourcing.Integration) {
		i.TotalCandidatesFound += n
		return func(current *sourcing.Integration) { current.TotalCandidatesFound -= n }
	})
}

// AddCandidatesImported increments the imported counter
func (s *InMemoryStore) AddCandidatesImported(ctx context.Context, id uint, n int) error {
	return s.mutateIntegration(ctx, id, func(i *sourcing.Integration) func(*sourcing.Integration) {
		i.TotalCandidatesImported += n
		return func(current *sourcing.Integration) { current.TotalCandidatesImported -= n }
	})
}

// MarkSyncSucceeded moves the integration to ACTIVE and clears error bookkeeping
func (s *InMemoryStore) MarkSyncSucceeded(ctx context.Context, id uint, at time.Time, next *time.Time) error {
	return s.mutateIntegration(ctx, id, func(i *sourcing.Integration) func(*sourcing.Integration) {
		previous := captureSyncState(i)
		i.Status = sourcing.StatusActive
		i.LastSyncAt = &at
		i.NextSyncAt = clonePtr(next)
		i.ErrorCount = 0
		i.LastError = ""
		i.UpdatedAt = at
		return previous.apply
	})
}

// MarkSyncFailed moves the integration to ERROR and increments its error count
func (s *InMemoryStore) MarkSyncFailed(ctx context.Context, id uint, message string) error {
	return s.mutateIntegration(ctx, id, func(i *sourcing.Integration) func(*sourcing.Integration) {
		previous := captureSyncState(i)
		i.Status = sourcing.StatusError
		i.ErrorCount++
		i.LastError = message
		i.UpdatedAt = time.Now().UTC()
		return previous.apply
	})
}

// mutateIntegration applies mutate to a stored integration. The returned function reverts it on rollback.
func (s *InMemoryStore) mutateIntegration(ctx context.Context, id uint, mutate func(*sourcing.Integration) func(*sourcing.Integration)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	integration, exists := s.integrations[id]
	if !exists {
		return sourcing.NewNotFoundError("integration")
	}

	undo := mutate(integration)
	s.journal(ctx).record(func() {
		if current, ok := s.integrations[id]; ok {
			undo(current)
		}
	})
	return nil
}

type syncState struct {
	status     sourcing.IntegrationStatus
	lastSyncAt *time.Time
	nextSyncAt *time.Time
	errorCount int
	lastError  string
	updatedAt  time.Time
}

func captureSyncState(i *sourcing.Integration) syncState {
	return syncState{
		status:     i.Status,
		lastSyncAt: clonePtr(i.LastSyncAt),
		nextSyncAt: clonePtr(i.NextSyncAt),
		errorCount: i.ErrorCount,
		lastError:  i.LastError,
		updatedAt:  i.UpdatedAt,
	}
}

func (state syncState) apply(i *sourcing.Integration) {
	i.Status = state.status
	i.LastSyncAt = clonePtr(state.lastSyncAt)
	i.NextSyncAt = clonePtr(state.nextSyncAt)
	i.ErrorCount = state.errorCount
	i.LastError = state.lastError
	i.UpdatedAt = state.updatedAt
}

/** Candidates */

// FindCandidate retrieves a candidate by its natural key
func (s *InMemoryStore) FindCandidate(ctx context.Context, platform sourcing.Platform, externalID string) (*sourcing.ExternalCandidate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, candidate := range s.candidates {
		if candidate.Platform == platform && candidate.ExternalID == externalID {
			return candidate.Clone(), nil
		}
	}
	return nil, sourcing.NewNotFoundError("candidate")
}

// GetCandidate retrieves a candidate by ID
func (s *InMemoryStore) GetCandidate(ctx context.Context, id uint) (*sourcing.ExternalCandidate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	candidate, exists := s.candidates[id]
	if !exists {
		return nil, sourcing.NewNotFoundError("candidate")
	}
	return candidate.Clone(), nil
}

// ListCandidates returns candidates matching the filter, newest first
func (s *InMemoryStore) ListCandidates(ctx context.Context, filter sourcing.CandidateFilter) ([]*sourcing.ExternalCandidate, error) {
	matched := s.filterCandidates(filter)
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*sourcing.ExternalCandidate{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// CountCandidates counts candidates matching the filter, ignoring limit and offset
func (s *InMemoryStore) CountCandidates(ctx context.Context, filter sourcing.CandidateFilter) (int64, error) {
	return int64(len(s.filterCandidates(filter))), nil
}

func (s *InMemoryStore) filterCandidates(filter sourcing.CandidateFilter) []*sourcing.ExternalCandidate {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*sourcing.ExternalCandidate, 0)
	for _, candidate := range s.candidates {
		if filter.Platform != "" && candidate.Platform != filter.Platform {
			continue
		}
		if filter.IntegrationID != nil && (candidate.IntegrationID == nil || *candidate.IntegrationID != *filter.IntegrationID) {
			continue
		}
		if filter.Imported != nil && candidate.IsImported != *filter.Imported {
			continue
		}
		out = append(out, candidate.Clone())
	}
	return out
}

// SaveCandidate inserts a new candidate or updates the synced fields of an existing one
func (s *InMemoryStore) SaveCandidate(ctx context.Context, candidate *sourcing.ExternalCandidate) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UTC()

	if candidate.ID == 0 {
		for _, existing := range s.candidates {
			if existing.Platform == candidate.Platform && existing.ExternalID == candidate.ExternalID {
				return sourcing.NewConflictError(fmt.Sprintf("candidate '%s' already exists on %s", candidate.ExternalID, candidate.Platform))
			}
		}

		s.nextCandidateID++
		candidate.ID = s.nextCandidateID
		if candidate.CreatedAt.IsZero() {
			candidate.CreatedAt = now
		}
		if candidate.UpdatedAt.IsZero() {
			candidate.UpdatedAt = now
		}

		id := candidate.ID
		s.candidates[id] = candidate.Clone()
		s.journal(ctx).record(func() { delete(s.candidates, id) })
		return nil
	}

	stored, exists := s.candidates[candidate.ID]
	if !exists {
		return sourcing.NewNotFoundError("candidate")
	}

	id := candidate.ID
	s.candidates[id] = withImportState(candidate.Clone(), stored)
	s.journal(ctx).record(func() {
		if current, ok := s.candidates[id]; ok {
			s.candidates[id] = withImportState(stored.Clone(), current)
		}
	})
	return nil
}

// withImportState keeps the identity and import state of stored on updated.
// Import state is owned by MarkCandidateImported.
func withImportState(updated, stored *sourcing.ExternalCandidate) *sourcing.ExternalCandidate {
	updated.Platform = stored.Platform
	updated.ExternalID = stored.ExternalID
	updated.IsImported = stored.IsImported
	updated.ImportedUserID = stored.ImportedUserID
	updated.ImportedAt = stored.ImportedAt
	updated.CreatedAt = stored.CreatedAt
	return updated
}

// MarkCandidateImported flips the imported flag once. A second call fails with a conflict.
func (s *InMemoryStore) MarkCandidateImported(ctx context.Context, id uint, userID uint, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	candidate, exists := s.candidates[id]
	if !exists {
		return sourcing.NewNotFoundError("candidate")
	}
	if candidate.IsImported {
		return sourcing.NewConflictError("candidate already imported")
	}

	previousUpdate := candidate.UpdatedAt
	candidate.IsImported = true
	candidate.ImportedUserID = &userID
	candidate.ImportedAt = &at
	candidate.UpdatedAt = at

	s.journal(ctx).record(func() {
		if current, ok := s.candidates[id]; ok {
			current.IsImported = false
			current.ImportedUserID = nil
			current.ImportedAt = nil
			current.UpdatedAt = previousUpdate
		}
	})
	return nil
}

/** Audit */

// CreateImport records a promotion event
func (s *InMemoryStore) CreateImport(ctx context.Context, record *sourcing.CandidateImport) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextImportID++
	record.ID = s.nextImportID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	stored := *record
	s.imports = append(s.imports, &stored)

	id := record.ID
	s.journal(ctx).record(func() {
		s.imports = slices.DeleteFunc(s.imports, func(r *sourcing.CandidateImport) bool { return r.ID == id })
	})
	return nil
}

// ListImports returns the promotion events of a candidate, oldest first
func (s *InMemoryStore) ListImports(ctx context.Context, candidateID uint) ([]*sourcing.CandidateImport, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*sourcing.CandidateImport, 0)
	for _, record := range s.imports {
		if record.ExternalCandidateID == candidateID {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

// AppendLog adds an audit entry
func (s *InMemoryStore) AppendLog(ctx context.Context, entry *sourcing.IntegrationLog) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	stored := *entry
	stored.Details = maps.Clone(entry.Details)
	s.logs = append(s.logs, &stored)

	id := entry.ID
	s.journal(ctx).record(func() {
		s.logs = slices.DeleteFunc(s.logs, func(l *sourcing.IntegrationLog) bool { return l.ID == id })
	})
	return nil
}

// ListLogs returns the newest audit entries of an integration first
func (s *InMemoryStore) ListLogs(ctx context.Context, integrationID uint, limit int) ([]*sourcing.IntegrationLog, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*sourcing.IntegrationLog, 0)
	for i := len(s.logs) - 1; i >= 0; i-- {
		entry := s.logs[i]
		if entry.IntegrationID != integrationID {
			continue
		}

		copied := *entry
		copied.Details = maps.Clone(entry.Details)
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func cloneIntegration(in *sourcing.Integration) *sourcing.Integration {
	out := *in
	out.SearchDefaults = cloneCriteria(in.SearchDefaults)
	out.LastSyncAt = clonePtr(in.LastSyncAt)
	out.NextSyncAt = clonePtr(in.NextSyncAt)
	return &out
}

func cloneCriteria(in sourcing.SearchCriteria) sourcing.SearchCriteria {
	out := in
	out.Keywords = slices.Clone(in.Keywords)
	out.Locations = slices.Clone(in.Locations)
	out.ExperienceMin = clonePtr(in.ExperienceMin)
	out.ExperienceMax = clonePtr(in.ExperienceMax)
	out.SalaryMin = clonePtr(in.SalaryMin)
	out.SalaryMax = clonePtr(in.SalaryMax)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
