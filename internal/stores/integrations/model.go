package integrations

import (
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"gorm.io/datatypes"
)

// IntegrationModel represents the database model for platform integrations
type IntegrationModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	Platform    string `json:"platform" gorm:"column:platform;uniqueIndex:idx_integration_platform;not null;size:50"`
	Name        string `json:"name" gorm:"column:name;not null;size:255"`
	Description string `json:"description" gorm:"column:description;type:text"`
	Status      string `json:"status" gorm:"column:status;not null;size:20;index"`
	IsActive    bool   `json:"is_active" gorm:"column:is_active;not null"`

	// Ciphertext, NULL when the credential is absent
	APIKey       *string `json:"-" gorm:"column:api_key;type:text"`
	APISecret    *string `json:"-" gorm:"column:api_secret;type:text"`
	AccessToken  *string `json:"-" gorm:"column:access_token;type:text"`
	RefreshToken *string `json:"-" gorm:"column:refresh_token;type:text"`

	SearchDefaults datatypes.JSONType[sourcing.SearchCriteria] `json:"search_defaults" gorm:"column:search_defaults"`

	AutoSync          bool       `json:"auto_sync" gorm:"column:auto_sync;not null"`
	SyncIntervalHours int        `json:"sync_interval_hours" gorm:"column:sync_interval_hours;not null"`
	LastSyncAt        *time.Time `json:"last_sync_at" gorm:"column:last_sync_at"`
	NextSyncAt        *time.Time `json:"next_sync_at" gorm:"column:next_sync_at;index"`

	TotalCandidatesFound    int    `json:"total_candidates_found" gorm:"column:total_candidates_found;not null"`
	TotalCandidatesImported int    `json:"total_candidates_imported" gorm:"column:total_candidates_imported;not null"`
	ErrorCount              int    `json:"error_count" gorm:"column:error_count;not null"`
	LastError               string `json:"last_error" gorm:"column:last_error;type:text"`

	CreatedBy uint `json:"created_by" gorm:"column:created_by"`
}

// TableName sets the table name for GORM
func (IntegrationModel) TableName() string {
	return "sourcing_integrations"
}

// ExternalCandidateModel represents a discovered candidate, unique per platform and external id
type ExternalCandidateModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	IntegrationID *uint             `json:"integration_id" gorm:"column:integration_id;index"`
	Integration   *IntegrationModel `json:"-" gorm:"foreignKey:IntegrationID;constraint:OnDelete:CASCADE"`

	Platform   string `json:"platform" gorm:"column:platform;not null;size:50;uniqueIndex:idx_candidate_natural_key,priority:1"`
	ExternalID string `json:"external_id" gorm:"column:external_id;not null;size:255;uniqueIndex:idx_candidate_natural_key,priority:2"`

	FirstName string `json:"first_name" gorm:"column:first_name;size:100"`
	LastName  string `json:"last_name" gorm:"column:last_name;size:100"`
	Email     string `json:"email" gorm:"column:email;size:254"`
	Phone     string `json:"phone" gorm:"column:phone;size:50"`
	Location  string `json:"location" gorm:"column:location;size:255"`

	CurrentPosition string                      `json:"current_position" gorm:"column:current_position;size:255"`
	CurrentCompany  string                      `json:"current_company" gorm:"column:current_company;size:255"`
	ExperienceYears *int                        `json:"experience_years" gorm:"column:experience_years"`
	Skills          datatypes.JSONSlice[string] `json:"skills" gorm:"column:skills"`
	SalaryMin       *int                        `json:"salary_min" gorm:"column:salary_min"`
	SalaryMax       *int                        `json:"salary_max" gorm:"column:salary_max"`
	Summary         string                      `json:"summary" gorm:"column:summary;type:text"`

	ProfileURL  string `json:"profile_url" gorm:"column:profile_url;size:500"`
	ResumeURL   string `json:"resume_url" gorm:"column:resume_url;size:500"`
	LinkedInURL string `json:"linkedin_url" gorm:"column:linkedin_url;size:500"`
	GithubURL   string `json:"github_url" gorm:"column:github_url;size:500"`

	RawData datatypes.JSONMap `json:"raw_data" gorm:"column:raw_data"`

	IsImported     bool       `json:"is_imported" gorm:"column:is_imported;not null;index"`
	ImportedUserID *uint      `json:"imported_user_id" gorm:"column:imported_user_id"`
	ImportedAt     *time.Time `json:"imported_at" gorm:"column:imported_at"`
	LastSyncedAt   *time.Time `json:"last_synced_at" gorm:"column:last_synced_at"`
}

// TableName sets the table name for GORM
func (ExternalCandidateModel) TableName() string {
	return "sourcing_external_candidates"
}

// CandidateImportModel records a promotion into an internal account.
// Rows outlive their candidate so the audit trail survives integration removal.
type CandidateImportModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`

	ExternalCandidateID uint   `json:"external_candidate_id" gorm:"column:external_candidate_id;not null;index"`
	UserID              uint   `json:"user_id" gorm:"column:user_id;not null"`
	ImportedBy          uint   `json:"imported_by" gorm:"column:imported_by"`
	Outcome             string `json:"outcome" gorm:"column:outcome;not null;size:20"`
	Notes               string `json:"notes" gorm:"column:notes;type:text"`
}

// TableName sets the table name for GORM
func (CandidateImportModel) TableName() string {
	return "sourcing_candidate_imports"
}

// IntegrationLogModel is one append-only audit entry
type IntegrationLogModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;index"`

	IntegrationID uint              `json:"integration_id" gorm:"column:integration_id;not null;index"`
	Integration   *IntegrationModel `json:"-" gorm:"foreignKey:IntegrationID;constraint:OnDelete:CASCADE"`

	Operation string            `json:"operation" gorm:"column:operation;not null;size:20"`
	Status    string            `json:"status" gorm:"column:status;not null;size:20"`
	Message   string            `json:"message" gorm:"column:message;type:text"`
	Details   datatypes.JSONMap `json:"details" gorm:"column:details"`
}

// TableName sets the table name for GORM
func (IntegrationLogModel) TableName() string {
	return "sourcing_integration_logs"
}

/** Conversions */

func integrationToModel(in *sourcing.Integration) *IntegrationModel {
	return &IntegrationModel{
		ID:                      in.ID,
		CreatedAt:               in.CreatedAt,
		UpdatedAt:               in.UpdatedAt,
		Platform:                string(in.Platform),
		Name:                    in.Name,
		Description:             in.Description,
		Status:                  string(in.Status),
		IsActive:                in.IsActive,
		APIKey:                  nullable(in.Credentials.APIKey),
		APISecret:               nullable(in.Credentials.APISecret),
		AccessToken:             nullable(in.Credentials.AccessToken),
		RefreshToken:            nullable(in.Credentials.RefreshToken),
		SearchDefaults:          datatypes.NewJSONType(in.SearchDefaults),
		AutoSync:                in.AutoSync,
		SyncIntervalHours:       in.SyncIntervalHours,
		LastSyncAt:              in.LastSyncAt,
		NextSyncAt:              in.NextSyncAt,
		TotalCandidatesFound:    in.TotalCandidatesFound,
		TotalCandidatesImported: in.TotalCandidatesImported,
		ErrorCount:              in.ErrorCount,
		LastError:               in.LastError,
		CreatedBy:               in.CreatedBy,
	}
}

func (m *IntegrationModel) toDomain() *sourcing.Integration {
	return &sourcing.Integration{
		ID:          m.ID,
		Platform:    sourcing.Platform(m.Platform),
		Name:        m.Name,
		Description: m.Description,
		Status:      sourcing.IntegrationStatus(m.Status),
		IsActive:    m.IsActive,
		Credentials: sourcing.Credentials{
			APIKey:       deref(m.APIKey),
			APISecret:    deref(m.APISecret),
			AccessToken:  deref(m.AccessToken),
			RefreshToken: deref(m.RefreshToken),
		},
		SearchDefaults:          m.SearchDefaults.Data(),
		AutoSync:                m.AutoSync,
		SyncIntervalHours:       m.SyncIntervalHours,
		LastSyncAt:              m.LastSyncAt,
		NextSyncAt:              m.NextSyncAt,
		TotalCandidatesFound:    m.TotalCandidatesFound,
		TotalCandidatesImported: m.TotalCandidatesImported,
		ErrorCount:              m.ErrorCount,
		LastError:               m.LastError,
		CreatedBy:               m.CreatedBy,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

func candidateToModel(in *sourcing.ExternalCandidate) *ExternalCandidateModel {
	model := &ExternalCandidateModel{
		ID:              in.ID,
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.UpdatedAt,
		IntegrationID:   in.IntegrationID,
		Platform:        string(in.Platform),
		ExternalID:      in.ExternalID,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Phone:           in.Phone,
		Location:        in.Location,
		CurrentPosition: in.CurrentPosition,
		CurrentCompany:  in.CurrentCompany,
		ExperienceYears: in.ExperienceYears,
		SalaryMin:       in.SalaryMin,
		SalaryMax:       in.SalaryMax,
		Summary:         in.Summary,
		ProfileURL:      in.ProfileURL,
		ResumeURL:       in.ResumeURL,
		LinkedInURL:     in.LinkedInURL,
		GithubURL:       in.GithubURL,
		IsImported:      in.IsImported,
		ImportedUserID:  in.ImportedUserID,
		ImportedAt:      in.ImportedAt,
		LastSyncedAt:    in.LastSyncedAt,
	}
	if in.Skills != nil {
		model.Skills = datatypes.JSONSlice[string](in.Skills)
	}
	if in.RawData != nil {
		model.RawData = datatypes.JSONMap(in.RawData)
	}
	return model
}

func (m *ExternalCandidateModel) toDomain() *sourcing.ExternalCandidate {
	out := &sourcing.ExternalCandidate{
		ID:            m.ID,
		IntegrationID: m.IntegrationID,
		Platform:      sourcing.Platform(m.Platform),
		NormalizedCandidate: sourcing.NormalizedCandidate{
			ExternalID:      m.ExternalID,
			FirstName:       m.FirstName,
			LastName:        m.LastName,
			Email:           m.Email,
			Phone:           m.Phone,
			Location:        m.Location,
			CurrentPosition: m.CurrentPosition,
			CurrentCompany:  m.CurrentCompany,
			ExperienceYears: m.ExperienceYears,
			SalaryMin:       m.SalaryMin,
			SalaryMax:       m.SalaryMax,
			Summary:         m.Summary,
			ProfileURL:      m.ProfileURL,
			ResumeURL:       m.ResumeURL,
			LinkedInURL:     m.LinkedInURL,
			GithubURL:       m.GithubURL,
		},
		IsImported:     m.IsImported,
		ImportedUserID: m.ImportedUserID,
		ImportedAt:     m.ImportedAt,
		LastSyncedAt:   m.LastSyncedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if len(m.Skills) > 0 {
		out.Skills = []string(m.Skills)
	}
	if len(m.RawData) > 0 {
		out.RawData = map[string]any(m.RawData)
	}
	return out
}

func (m *CandidateImportModel) toDomain() *sourcing.CandidateImport {
	return &sourcing.CandidateImport{
		ID:                  m.ID,
		ExternalCandidateID: m.ExternalCandidateID,
		UserID:              m.UserID,
		ImportedBy:          m.ImportedBy,
		Outcome:             sourcing.ImportOutcome(m.Outcome),
		Notes:               m.Notes,
		CreatedAt:           m.CreatedAt,
	}
}

func (m *IntegrationLogModel) toDomain() *sourcing.IntegrationLog {
	out := &sourcing.IntegrationLog{
		ID:            m.ID,
		IntegrationID: m.IntegrationID,
		Operation:     sourcing.LogOperation(m.Operation),
		Status:        sourcing.LogStatus(m.Status),
		Message:       m.Message,
		CreatedAt:     m.CreatedAt,
	}
	if len(m.Details) > 0 {
		out.Details = map[string]any(m.Details)
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
