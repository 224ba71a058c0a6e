package accounts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethanbaker/sourcing/internal/stores/database"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store, db
}

func sampleFields(email string) sourcing.AccountFields {
	years := 3
	return sourcing.AccountFields{
		Email:        email,
		PasswordHash: "$2a$04$hash",
		FirstName:    "Анна",
		LastName:     "Смирнова",
		Profile: sourcing.CandidateProfile{
			CurrentPosition: "Frontend Developer",
			ExperienceYears: &years,
			Skills:          []string{"JavaScript", "React"},
		},
	}
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	id, err := store.CreateAccount(ctx, sampleFields("Anna@Example.com "))
	require.NoError(t, err)
	assert.NotZero(t, id)

	exists, err := store.EmailExists(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	user, err := store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RoleCandidate, user.Role)
	require.NotNil(t, user.Profile)
	assert.Equal(t, []string{"JavaScript", "React"}, []string(user.Profile.Skills))
	assert.Equal(t, "Frontend Developer", user.Profile.CurrentPosition)

	_, err = store.CreateAccount(ctx, sampleFields("anna@example.com"))
	assert.True(t, sourcing.IsConflict(err), "got %v", err)

	_, err = store.CreateAccount(ctx, sampleFields(""))
	assert.True(t, sourcing.IsValidation(err))
}

func TestCreateAccountJoinsTransaction(t *testing.T) {
	ctx := context.Background()
	store, db := setupStore(t)

	errBoom := errors.New("boom")
	err := database.Transaction(ctx, db, func(ctx context.Context) error {
		if _, err := store.CreateAccount(ctx, sampleFields("rollback@example.com")); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	exists, err := store.EmailExists(ctx, "rollback@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	id, err := store.CreateAccount(ctx, sampleFields("anna@example.com"))
	require.NoError(t, err)

	user, err := store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, user.Profile.UserID)

	_, err = store.CreateAccount(ctx, sampleFields("ANNA@example.com"))
	assert.True(t, sourcing.IsConflict(err))

	store.FailCreate = errors.New("database down")
	_, err = store.CreateAccount(ctx, sampleFields("other@example.com"))
	assert.EqualError(t, err, "database down")
	assert.Equal(t, 1, store.Count())
}
