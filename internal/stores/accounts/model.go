package accounts

import (
	"time"

	"gorm.io/datatypes"
)

// UserModel represents an internal account created from an imported candidate
type UserModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	Email        string `json:"email" gorm:"column:email;uniqueIndex;not null;size:254"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null;size:255"`
	FirstName    string `json:"first_name" gorm:"column:first_name;size:100"`
	LastName     string `json:"last_name" gorm:"column:last_name;size:100"`
	Phone        string `json:"phone" gorm:"column:phone;size:50"`
	Role         string `json:"role" gorm:"column:role;not null;size:20"`

	Profile *CandidateProfileModel `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// CandidateProfileModel holds the professional details of a candidate account
type CandidateProfileModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	UserID uint `json:"user_id" gorm:"column:user_id;uniqueIndex;not null"`

	Summary         string                      `json:"summary" gorm:"column:summary;type:text"`
	ExperienceYears *int                        `json:"experience_years" gorm:"column:experience_years"`
	CurrentPosition string                      `json:"current_position" gorm:"column:current_position;size:255"`
	CurrentCompany  string                      `json:"current_company" gorm:"column:current_company;size:255"`
	Location        string                      `json:"location" gorm:"column:location;size:255"`
	Skills          datatypes.JSONSlice[string] `json:"skills" gorm:"column:skills"`
	SalaryMin       *int                        `json:"salary_min" gorm:"column:salary_min"`
	SalaryMax       *int                        `json:"salary_max" gorm:"column:salary_max"`
	LinkedInURL     string                      `json:"linkedin_url" gorm:"column:linkedin_url;size:500"`
	GithubURL       string                      `json:"github_url" gorm:"column:github_url;size:500"`
}

// TableName sets the table name for GORM
func (CandidateProfileModel) TableName() string {
	return "candidate_profiles"
}
