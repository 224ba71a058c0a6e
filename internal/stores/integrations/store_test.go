package integrations

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethanbaker/sourcing/internal/stores/database"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories runs every contract test against both implementations
func storeFactories(t *testing.T) map[string]func(t *testing.T) sourcing.StoreInterface {
	return map[string]func(t *testing.T) sourcing.StoreInterface{
		"gorm": func(t *testing.T) sourcing.StoreInterface {
			db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "sourcing.db"))
			require.NoError(t, err)

			store, err := NewStore(db)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
		"memory": func(t *testing.T) sourcing.StoreInterface {
			return NewInMemoryStore()
		},
	}
}

func newIntegration(platform sourcing.Platform) *sourcing.Integration {
	return &sourcing.Integration{
		Platform:          platform,
		Name:              "Test " + platform.DisplayName(),
		Status:            sourcing.StatusPending,
		IsActive:          true,
		AutoSync:          true,
		SyncIntervalHours: 24,
		Credentials:       sourcing.Credentials{AccessToken: "v1:sealed"},
		SearchDefaults: sourcing.SearchCriteria{
			Keywords:  []string{"python"},
			Locations: []string{"Москва"},
		},
	}
}

func newCandidate(integration *sourcing.Integration, externalID string) *sourcing.ExternalCandidate {
	years := 5
	return sourcing.NewExternalCandidate(integration, sourcing.NormalizedCandidate{
		ExternalID:      externalID,
		FirstName:       "Иван",
		LastName:        "Петров",
		CurrentPosition: "Senior Python Developer",
		ExperienceYears: &years,
		Skills:          []string{"Python", "Django"},
		RawData:         map[string]any{"source": "test"},
	}, time.Now().UTC())
}

func TestStoreIntegrations(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			integration := newIntegration(sourcing.PlatformLinkedIn)
			require.NoError(t, store.CreateIntegration(ctx, integration))
			assert.NotZero(t, integration.ID)

			t.Run("one integration per platform", func(t *testing.T) {
				err := store.CreateIntegration(ctx, newIntegration(sourcing.PlatformLinkedIn))
				assert.True(t, sourcing.IsConflict(err), "got %v", err)
			})

			t.Run("round trips fields", func(t *testing.T) {
				got, err := store.GetIntegration(ctx, integration.ID)
				require.NoError(t, err)
				assert.Equal(t, sourcing.PlatformLinkedIn, got.Platform)
				assert.Equal(t, "v1:sealed", got.Credentials.AccessToken)
				assert.Empty(t, got.Credentials.APIKey)
				assert.Equal(t, []string{"python"}, got.SearchDefaults.Keywords)
				assert.True(t, got.IsActive)
				assert.True(t, got.AutoSync)

				byPlatform, err := store.FindIntegrationByPlatform(ctx, sourcing.PlatformLinkedIn)
				require.NoError(t, err)
				assert.Equal(t, integration.ID, byPlatform.ID)
			})

			t.Run("missing integration", func(t *testing.T) {
				_, err := store.GetIntegration(ctx, 9999)
				assert.True(t, sourcing.IsNotFound(err))

				_, err = store.FindIntegrationByPlatform(ctx, sourcing.PlatformRabota)
				assert.True(t, sourcing.IsNotFound(err))

				assert.True(t, sourcing.IsNotFound(store.AddCandidatesFound(ctx, 9999, 1)))
				assert.True(t, sourcing.IsNotFound(store.MarkSyncFailed(ctx, 9999, "boom")))
			})

			t.Run("settings save keeps counters", func(t *testing.T) {
				require.NoError(t, store.AddCandidatesFound(ctx, integration.ID, 3))
				require.NoError(t, store.MarkSyncFailed(ctx, integration.ID, "timeout"))

				stale := newIntegration(sourcing.PlatformLinkedIn)
				stale.ID = integration.ID
				stale.Name = "Renamed"
				stale.IsActive = false
				stale.UpdatedAt = time.Now().UTC()
				require.NoError(t, store.SaveIntegrationSettings(ctx, stale))

				got, err := store.GetIntegration(ctx, integration.ID)
				require.NoError(t, err)
				assert.Equal(t, "Renamed", got.Name)
				assert.False(t, got.IsActive)
				assert.Equal(t, 3, got.TotalCandidatesFound)
				assert.Equal(t, 1, got.ErrorCount)
				assert.Equal(t, sourcing.StatusError, got.Status)
				assert.Equal(t, "timeout", got.LastError)
			})

			t.Run("sync success clears errors", func(t *testing.T) {
				now := time.Now().UTC().Truncate(time.Second)
				next := now.Add(24 * time.Hour)
				require.NoError(t, store.MarkSyncSucceeded(ctx, integration.ID, now, &next))

				got, err := store.GetIntegration(ctx, integration.ID)
				require.NoError(t, err)
				assert.Equal(t, sourcing.StatusActive, got.Status)
				assert.Zero(t, got.ErrorCount)
				assert.Empty(t, got.LastError)
				require.NotNil(t, got.LastSyncAt)
				require.NotNil(t, got.NextSyncAt)
				assert.True(t, got.NextSyncAt.Equal(next))
			})
		})
	}
}

func TestStoreDueIntegrations(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			now := time.Now().UTC()

			neverSynced := newIntegration(sourcing.PlatformLinkedIn)
			require.NoError(t, store.CreateIntegration(ctx, neverSynced))

			overdue := newIntegration(sourcing.PlatformHHRu)
			require.NoError(t, store.CreateIntegration(ctx, overdue))
			past := now.Add(-time.Hour)
			require.NoError(t, store.MarkSyncSucceeded(ctx, overdue.ID, past.Add(-24*time.Hour), &past))

			later := newIntegration(sourcing.PlatformLalafo)
			require.NoError(t, store.CreateIntegration(ctx, later))
			future := now.Add(time.Hour)
			require.NoError(t, store.MarkSyncSucceeded(ctx, later.ID, now, &future))

			disabled := newIntegration(sourcing.PlatformSuperJob)
			disabled.IsActive = false
			require.NoError(t, store.CreateIntegration(ctx, disabled))

			manual := newIntegration(sourcing.PlatformZarplata)
			manual.AutoSync = false
			require.NoError(t, store.CreateIntegration(ctx, manual))

			due, err := store.ListDueIntegrations(ctx, now)
			require.NoError(t, err)

			ids := make([]uint, len(due))
			for i, integration := range due {
				ids[i] = integration.ID
			}
			assert.Equal(t, []uint{neverSynced.ID, overdue.ID}, ids)
		})
	}
}

func TestStoreCandidates(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			integration := newIntegration(sourcing.PlatformLinkedIn)
			require.NoError(t, store.CreateIntegration(ctx, integration))

			candidate := newCandidate(integration, "linkedin_1")
			require.NoError(t, store.SaveCandidate(ctx, candidate))
			require.NotZero(t, candidate.ID)

			t.Run("natural key is unique", func(t *testing.T) {
				err := store.SaveCandidate(ctx, newCandidate(integration, "linkedin_1"))
				assert.True(t, sourcing.IsConflict(err), "got %v", err)
			})

			t.Run("find by natural key", func(t *testing.T) {
				got, err := store.FindCandidate(ctx, sourcing.PlatformLinkedIn, "linkedin_1")
				require.NoError(t, err)
				assert.Equal(t, candidate.ID, got.ID)
				assert.Equal(t, []string{"Python", "Django"}, got.Skills)
				assert.Equal(t, "test", got.RawData["source"])
				require.NotNil(t, got.ExperienceYears)
				assert.Equal(t, 5, *got.ExperienceYears)

				_, err = store.FindCandidate(ctx, sourcing.PlatformHHRu, "linkedin_1")
				assert.True(t, sourcing.IsNotFound(err))
			})

			t.Run("import is at most once", func(t *testing.T) {
				at := time.Now().UTC()
				require.NoError(t, store.MarkCandidateImported(ctx, candidate.ID, 42, at))

				err := store.MarkCandidateImported(ctx, candidate.ID, 43, at)
				assert.True(t, sourcing.IsConflict(err), "got %v", err)

				err = store.MarkCandidateImported(ctx, 9999, 43, at)
				assert.True(t, sourcing.IsNotFound(err), "got %v", err)

				got, err := store.GetCandidate(ctx, candidate.ID)
				require.NoError(t, err)
				assert.True(t, got.IsImported)
				require.NotNil(t, got.ImportedUserID)
				assert.Equal(t, uint(42), *got.ImportedUserID)
			})

			t.Run("resync never clears import state", func(t *testing.T) {
				stale := candidate.Clone()
				stale.IsImported = false
				stale.ImportedUserID = nil
				stale.CurrentCompany = "TechCorp"
				require.NoError(t, store.SaveCandidate(ctx, stale))

				got, err := store.GetCandidate(ctx, candidate.ID)
				require.NoError(t, err)
				assert.True(t, got.IsImported)
				assert.Equal(t, "TechCorp", got.CurrentCompany)
			})

			t.Run("list and count with filters", func(t *testing.T) {
				require.NoError(t, store.SaveCandidate(ctx, newCandidate(integration, "linkedin_2")))
				require.NoError(t, store.SaveCandidate(ctx, newCandidate(integration, "linkedin_3")))

				all, err := store.ListCandidates(ctx, sourcing.CandidateFilter{Platform: sourcing.PlatformLinkedIn})
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, "linkedin_3", all[0].ExternalID)

				page, err := store.ListCandidates(ctx, sourcing.CandidateFilter{Limit: 1, Offset: 1})
				require.NoError(t, err)
				require.Len(t, page, 1)
				assert.Equal(t, "linkedin_2", page[0].ExternalID)

				imported := true
				count, err := store.CountCandidates(ctx, sourcing.CandidateFilter{IntegrationID: &integration.ID, Imported: &imported})
				require.NoError(t, err)
				assert.Equal(t, int64(1), count)
			})
		})
	}
}

func TestStoreDeleteCascades(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			doomed := newIntegration(sourcing.PlatformLinkedIn)
			require.NoError(t, store.CreateIntegration(ctx, doomed))
			kept := newIntegration(sourcing.PlatformHHRu)
			require.NoError(t, store.CreateIntegration(ctx, kept))

			for _, id := range []string{"a", "b", "c"} {
				require.NoError(t, store.SaveCandidate(ctx, newCandidate(doomed, "linkedin_"+id)))
			}
			require.NoError(t, store.SaveCandidate(ctx, newCandidate(kept, "hh_1")))

			for range 5 {
				require.NoError(t, store.AppendLog(ctx, &sourcing.IntegrationLog{
					IntegrationID: doomed.ID,
					Operation:     sourcing.OperationSync,
					Status:        sourcing.LogSuccess,
					Message:       "ok",
				}))
			}

			first, err := store.FindCandidate(ctx, sourcing.PlatformLinkedIn, "linkedin_a")
			require.NoError(t, err)
			require.NoError(t, store.CreateImport(ctx, &sourcing.CandidateImport{
				ExternalCandidateID: first.ID,
				UserID:              7,
				Outcome:             sourcing.ImportSuccess,
			}))

			require.NoError(t, store.DeleteIntegration(ctx, doomed.ID))

			_, err = store.GetIntegration(ctx, doomed.ID)
			assert.True(t, sourcing.IsNotFound(err))

			count, err := store.CountCandidates(ctx, sourcing.CandidateFilter{Platform: sourcing.PlatformLinkedIn})
			require.NoError(t, err)
			assert.Zero(t, count)

			logs, err := store.ListLogs(ctx, doomed.ID, 0)
			require.NoError(t, err)
			assert.Empty(t, logs)

			// Other integrations and the import trail survive
			count, err = store.CountCandidates(ctx, sourcing.CandidateFilter{Platform: sourcing.PlatformHHRu})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			imports, err := store.ListImports(ctx, first.ID)
			require.NoError(t, err)
			assert.Len(t, imports, 1)

			assert.True(t, sourcing.IsNotFound(store.DeleteIntegration(ctx, doomed.ID)))
		})
	}
}

func TestStoreLogsNewestFirst(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			integration := newIntegration(sourcing.PlatformLalafo)
			require.NoError(t, store.CreateIntegration(ctx, integration))

			base := time.Now().UTC().Add(-time.Hour)
			for i, message := range []string{"first", "second", "third"} {
				require.NoError(t, store.AppendLog(ctx, &sourcing.IntegrationLog{
					IntegrationID: integration.ID,
					Operation:     sourcing.OperationSearch,
					Status:        sourcing.LogSuccess,
					Message:       message,
					Details:       map[string]any{"count": i},
					CreatedAt:     base.Add(time.Duration(i) * time.Minute),
				}))
			}

			logs, err := store.ListLogs(ctx, integration.ID, 2)
			require.NoError(t, err)
			require.Len(t, logs, 2)
			assert.Equal(t, "third", logs[0].Message)
			assert.Equal(t, "second", logs[1].Message)
			assert.NotNil(t, logs[0].Details)
		})
	}
}

func TestStoreTransactionRollsBack(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			integration := newIntegration(sourcing.PlatformLinkedIn)
			require.NoError(t, store.CreateIntegration(ctx, integration))
			candidate := newCandidate(integration, "linkedin_tx")
			require.NoError(t, store.SaveCandidate(ctx, candidate))

			errBoom := errors.New("boom")
			err := store.Transaction(ctx, func(ctx context.Context) error {
				if err := store.MarkCandidateImported(ctx, candidate.ID, 1, time.Now().UTC()); err != nil {
					return err
				}
				if err := store.AddCandidatesImported(ctx, integration.ID, 1); err != nil {
					return err
				}
				return errBoom
			})
			require.ErrorIs(t, err, errBoom)

			got, err := store.GetCandidate(ctx, candidate.ID)
			require.NoError(t, err)
			assert.False(t, got.IsImported)

			reloaded, err := store.GetIntegration(ctx, integration.ID)
			require.NoError(t, err)
			assert.Zero(t, reloaded.TotalCandidatesImported)
		})
	}
}

func TestMemoryRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	hh := newIntegration(sourcing.PlatformHHRu)
	require.NoError(t, store.CreateIntegration(ctx, hh))
	linkedin := newIntegration(sourcing.PlatformLinkedIn)
	require.NoError(t, store.CreateIntegration(ctx, linkedin))
	existing := newCandidate(hh, "hh_existing")
	require.NoError(t, store.SaveCandidate(ctx, existing))

	inside := make(chan struct{})
	release := make(chan struct{})
	errBoom := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		done <- store.Transaction(ctx, func(ctx context.Context) error {
			if err := store.MarkCandidateImported(ctx, existing.ID, 7, time.Now().UTC()); err != nil {
				return err
			}
			if err := store.SaveCandidate(ctx, newCandidate(hh, "hh_inside")); err != nil {
				return err
			}
			if err := store.AddCandidatesImported(ctx, hh.ID, 1); err != nil {
				return err
			}
			if err := store.AppendLog(ctx, &sourcing.IntegrationLog{IntegrationID: hh.ID, Operation: sourcing.OperationImport, Status: sourcing.LogSuccess}); err != nil {
				return err
			}

			close(inside)
			<-release
			return errBoom
		})
	}()

	<-inside

	// Writes on another integration must not wait for the open transaction
	require.NoError(t, store.MarkSyncFailed(ctx, linkedin.ID, "remote down"))
	require.NoError(t, store.AppendLog(ctx, &sourcing.IntegrationLog{
		IntegrationID: linkedin.ID,
		Operation:     sourcing.OperationSync,
		Status:        sourcing.LogError,
		Message:       "remote down",
	}))
	outside := newCandidate(linkedin, "linkedin_outside")
	require.NoError(t, store.SaveCandidate(ctx, outside))
	require.NoError(t, store.AddCandidatesFound(ctx, hh.ID, 3))

	close(release)
	require.ErrorIs(t, <-done, errBoom)

	reloaded, err := store.GetIntegration(ctx, linkedin.ID)
	require.NoError(t, err)
	assert.Equal(t, sourcing.StatusError, reloaded.Status)
	assert.Equal(t, 1, reloaded.ErrorCount)
	assert.Equal(t, "remote down", reloaded.LastError)

	logs, err := store.ListLogs(ctx, linkedin.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "remote down", logs[0].Message)

	_, err = store.GetCandidate(ctx, outside.ID)
	assert.NoError(t, err)

	// Only the rows written through the transaction are reverted
	source, err := store.GetIntegration(ctx, hh.ID)
	require.NoError(t, err)
	assert.Zero(t, source.TotalCandidatesImported)
	assert.Equal(t, 3, source.TotalCandidatesFound)

	got, err := store.GetCandidate(ctx, existing.ID)
	require.NoError(t, err)
	assert.False(t, got.IsImported)
	assert.Nil(t, got.ImportedUserID)

	_, err = store.FindCandidate(ctx, sourcing.PlatformHHRu, "hh_inside")
	assert.True(t, sourcing.IsNotFound(err))

	hhLogs, err := store.ListLogs(ctx, hh.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, hhLogs)
}

func TestMemoryRollbackRestoresSettingsAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	integration := newIntegration(sourcing.PlatformSuperJob)
	require.NoError(t, store.CreateIntegration(ctx, integration))
	candidate := newCandidate(integration, "sj_1")
	require.NoError(t, store.SaveCandidate(ctx, candidate))
	require.NoError(t, store.AppendLog(ctx, &sourcing.IntegrationLog{IntegrationID: integration.ID, Operation: sourcing.OperationCreate, Status: sourcing.LogSuccess}))

	errBoom := errors.New("boom")
	err := store.Transaction(ctx, func(ctx context.Context) error {
		edited := *integration
		edited.Name = "Renamed"
		edited.IsActive = false
		if err := store.SaveIntegrationSettings(ctx, &edited); err != nil {
			return err
		}
		if err := store.DeleteIntegration(ctx, integration.ID); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	reloaded, err := store.GetIntegration(ctx, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.Name, reloaded.Name)
	assert.True(t, reloaded.IsActive)

	_, err = store.GetCandidate(ctx, candidate.ID)
	assert.NoError(t, err)

	logs, err := store.ListLogs(ctx, integration.ID, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
