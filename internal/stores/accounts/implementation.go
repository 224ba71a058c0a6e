package accounts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethanbaker/sourcing/internal/stores/database"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoleCandidate is the role given to accounts created by an import
const RoleCandidate = "candidate"

var _ sourcing.AccountCreator = (*Store)(nil)

// Store creates internal accounts with GORM. Calls join the transaction carried by ctx.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new accounts store on an open connection and migrates its tables
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	store := &Store{db: db}
	if err := store.db.AutoMigrate(&UserModel{}, &CandidateProfileModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// EmailExists checks whether an account already uses the address
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := database.Conn(ctx, s.db).
		Model(&UserModel{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// CreateAccount inserts a candidate account with its profile and returns the new user ID
func (s *Store) CreateAccount(ctx context.Context, fields sourcing.AccountFields) (uint, error) {
	if strings.TrimSpace(fields.Email) == "" {
		return 0, sourcing.NewValidationError("email cannot be empty")
	}
	if fields.PasswordHash == "" {
		return 0, sourcing.NewValidationError("password hash cannot be empty")
	}

	user := toModel(fields)

	err := database.Transaction(ctx, s.db, func(ctx context.Context) error {
		if err := database.Conn(ctx, s.db).Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return sourcing.NewConflictError(fmt.Sprintf("account with email '%s' already exists", user.Email))
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetUser retrieves an account with its profile
func (s *Store) GetUser(ctx context.Context, id uint) (*UserModel, error) {
	var user UserModel
	if err := database.Conn(ctx, s.db).Preload("Profile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sourcing.NewNotFoundError("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func toModel(fields sourcing.AccountFields) *UserModel {
	profile := fields.Profile
	model := &UserModel{
		Email:        normalizeEmail(fields.Email),
		PasswordHash: fields.PasswordHash,
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Phone:        fields.Phone,
		Role:         RoleCandidate,
		Profile: &CandidateProfileModel{
			Summary:         profile.Summary,
			ExperienceYears: profile.ExperienceYears,
			CurrentPosition: profile.CurrentPosition,
			CurrentCompany:  profile.CurrentCompany,
			Location:        profile.Location,
			SalaryMin:       profile.SalaryMin,
			SalaryMax:       profile.SalaryMax,
			LinkedInURL:     profile.LinkedInURL,
			GithubURL:       profile.GithubURL,
		},
	}
	if profile.Skills != nil {
		model.Profile.Skills = datatypes.JSONSlice[string](slices.Clone(profile.Skills))
	}
	return model
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
