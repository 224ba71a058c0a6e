package accounts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

var _ sourcing.AccountCreator = (*InMemoryStore)(nil)

// InMemoryStore provides an in-memory AccountCreator for unit tests.
// It does not take part in store transactions.
type InMemoryStore struct {
	mutex  sync.RWMutex
	users  map[uint]*UserModel
	nextID uint

	// FailCreate, when set, is returned by CreateAccount
	FailCreate error
}

// NewInMemoryStore creates a new in-memory accounts store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[uint]*UserModel),
	}
}

// EmailExists checks whether an account already uses the address
func (s *InMemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.emailTaken(normalizeEmail(email)), nil
}

// CreateAccount stores a candidate account and returns its ID
func (s *InMemoryStore) CreateAccount(ctx context.Context, fields sourcing.AccountFields) (uint, error) {
	if strings.TrimSpace(fields.Email) == "" {
		return 0, sourcing.NewValidationError("email cannot be empty")
	}
	if fields.PasswordHash == "" {
		return 0, sourcing.NewValidationError("password hash cannot be empty")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailCreate != nil {
		return 0, s.FailCreate
	}

	user := toModel(fields)
	if s.emailTaken(user.Email) {
		return 0, sourcing.NewConflictError(fmt.Sprintf("account with email '%s' already exists", user.Email))
	}

	now := time.Now().UTC()
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt, user.UpdatedAt = now, now
	user.Profile.UserID = user.ID

	s.users[user.ID] = user
	return user.ID, nil
}

// GetUser retrieves an account with its profile
func (s *InMemoryStore) GetUser(ctx context.Context, id uint) (*UserModel, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, sourcing.NewNotFoundError("user")
	}

	copied := *user
	if user.Profile != nil {
		profile := *user.Profile
		copied.Profile = &profile
	}
	return &copied, nil
}

// Count returns the number of stored accounts
func (s *InMemoryStore) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.users)
}

func (s *InMemoryStore) emailTaken(email string) bool {
	for _, user := range s.users {
		if user.Email == email {
			return true
		}
	}
	return false
}
