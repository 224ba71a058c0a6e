package sourcing

import (
	"strings"
	"time"
)

/** Platforms */

// Platform identifies an external job or talent platform
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformHHRu     Platform = "hh_ru"
	PlatformSuperJob Platform = "superjob"
	PlatformLalafo   Platform = "lalafo"
	PlatformZarplata Platform = "zarplata"
	PlatformRabota   Platform = "rabota"
)

// Platforms lists every platform an integration can be created for
var Platforms = []Platform{
	PlatformLinkedIn,
	PlatformHHRu,
	PlatformSuperJob,
	PlatformLalafo,
	PlatformZarplata,
	PlatformRabota,
}

var platformDescriptions = map[Platform]string{
	PlatformLinkedIn: "Профессиональная социальная сеть для поиска кандидатов",
	PlatformHHRu:     "Крупнейший российский сайт поиска работы",
	PlatformSuperJob: "Популярная платформа для поиска работы в России",
	PlatformLalafo:   "Платформа объявлений в Кыргызстане",
	PlatformZarplata: "Сайт поиска работы с акцентом на зарплаты",
	PlatformRabota:   "Украинская платформа поиска работы",
}

// Valid reports whether p is one of the known platforms
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// DisplayName turns "hh_ru" into "Hh Ru"
func (p Platform) DisplayName() string {
	parts := strings.Split(string(p), "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Description returns a human readable description of the platform
func (p Platform) Description() string {
	if desc, ok := platformDescriptions[p]; ok {
		return desc
	}
	return "Платформа для поиска кандидатов"
}

// PlatformInfo describes a platform for callers choosing where to connect
type PlatformInfo struct {
	Value       Platform `json:"value"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Supported   bool     `json:"supported"` // Whether a search adapter is registered
}

/** Integrations */

// IntegrationStatus is the lifecycle state of an integration
type IntegrationStatus string

const (
	StatusPending IntegrationStatus = "pending" // Created, never synced
	StatusActive  IntegrationStatus = "active"  // Last sync succeeded
	StatusError   IntegrationStatus = "error"   // Last sync failed
)

// Credentials is a bundle of platform secrets. Every field is independently optional.
type Credentials struct {
	APIKey       string `json:"api_key,omitempty"`
	APISecret    string `json:"api_secret,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// IsEmpty reports whether no credential field is set
func (c Credentials) IsEmpty() bool {
	return c.APIKey == "" && c.APISecret == "" && c.AccessToken == "" && c.RefreshToken == ""
}

// SearchCriteria is a normalized search request shared by every adapter
type SearchCriteria struct {
	Keywords      []string `json:"keywords,omitempty"`
	Locations     []string `json:"locations,omitempty"`
	ExperienceMin *int     `json:"experience_min,omitempty"`
	ExperienceMax *int     `json:"experience_max,omitempty"`
	SalaryMin     *int     `json:"salary_min,omitempty"`
	SalaryMax     *int     `json:"salary_max,omitempty"`
}

// Integration is a configured connection to one platform
type Integration struct {
	ID          uint              `json:"id"`
	Platform    Platform          `json:"platform"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      IntegrationStatus `json:"status"`
	IsActive    bool              `json:"is_active"` // Disabled integrations are never scheduled

	// Encrypted at rest; fields are ciphertext when set
	Credentials Credentials `json:"-"`

	SearchDefaults SearchCriteria `json:"search_defaults"`

	AutoSync          bool       `json:"auto_sync"`
	SyncIntervalHours int        `json:"sync_interval_hours"`
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	NextSyncAt        *time.Time `json:"next_sync_at,omitempty"`

	TotalCandidatesFound    int    `json:"total_candidates_found"`
	TotalCandidatesImported int    `json:"total_candidates_imported"`
	ErrorCount              int    `json:"error_count"`
	LastError               string `json:"last_error,omitempty"`

	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCredentials reports whether any credential is stored for the integration
func (i *Integration) HasCredentials() bool {
	return !i.Credentials.IsEmpty()
}

/** Candidates */

// NormalizedCandidate is the adapter-independent shape of a discovered person.
// Empty strings, nil slices, nil pointers and a nil raw payload mean "absent".
type NormalizedCandidate struct {
	ExternalID string `json:"external_id"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`

	CurrentPosition string   `json:"current_position,omitempty"`
	CurrentCompany  string   `json:"current_company,omitempty"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	SalaryMin       *int     `json:"salary_min,omitempty"`
	SalaryMax       *int     `json:"salary_max,omitempty"`
	Summary         string   `json:"summary,omitempty"`

	ProfileURL  string `json:"profile_url,omitempty"`
	ResumeURL   string `json:"resume_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	GithubURL   string `json:"github_url,omitempty"`

	RawData map[string]any `json:"raw_data,omitempty"`
}

// FullName joins first and last name
func (c NormalizedCandidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ExternalCandidate is a stored candidate, unique per (platform, external id)
type ExternalCandidate struct {
	ID            uint     `json:"id"`
	IntegrationID *uint    `json:"integration_id,omitempty"`
	Platform      Platform `json:"platform"`

	NormalizedCandidate

	IsImported     bool       `json:"is_imported"`
	ImportedUserID *uint      `json:"imported_user_id,omitempty"`
	ImportedAt     *time.Time `json:"imported_at,omitempty"`

	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CandidateFilter narrows candidate listings
type CandidateFilter struct {
	Platform      Platform
	IntegrationID *uint
	Imported      *bool
	Limit         int
	Offset        int
}

/** Audit */

// ImportOutcome tags a promotion event
type ImportOutcome string

const (
	ImportSuccess ImportOutcome = "success"
	ImportPartial ImportOutcome = "partial"
	ImportFailed  ImportOutcome = "failed"
)

// CandidateImport records the promotion of an external candidate into an internal account
type CandidateImport struct {
	ID                  uint          `json:"id"`
	ExternalCandidateID uint          `json:"external_candidate_id"`
	UserID              uint          `json:"user_id"`
	ImportedBy          uint          `json:"imported_by"`
	Outcome             ImportOutcome `json:"outcome"`
	Notes               string        `json:"notes,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// LogOperation is the kind of operation an audit entry describes
type LogOperation string

const (
	OperationSearch LogOperation = "search"
	OperationSync   LogOperation = "sync"
	OperationImport LogOperation = "import"
	OperationCreate LogOperation = "create"
	OperationUpdate LogOperation = "update"
	OperationError  LogOperation = "error"
)

// LogStatus is the outcome of an audited operation
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogError   LogStatus = "error"
	LogWarning LogStatus = "warning"
)

// IntegrationLog is one append-only audit entry for an integration
type IntegrationLog struct {
	ID            uint           `json:"id"`
	IntegrationID uint           `json:"integration_id"`
	Operation     LogOperation   `json:"operation"`
	Status        LogStatus      `json:"status"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

/** Reports */

// SyncResult is returned by a completed sync run
type SyncResult struct {
	IntegrationID   uint              `json:"integration_id"`
	RunID           string            `json:"run_id"`
	Status          IntegrationStatus `json:"status"`
	CandidatesFound int               `json:"candidates_found"`
	LastSyncAt      time.Time         `json:"last_sync_at"`
	NextSyncAt      *time.Time        `json:"next_sync_at,omitempty"`
}

// SyncStatus summarises the sync health of an integration
type SyncStatus struct {
	IntegrationID      uint              `json:"integration_id"`
	Platform           Platform          `json:"platform"`
	Status             IntegrationStatus `json:"status"`
	LastSyncAt         *time.Time        `json:"last_sync_at,omitempty"`
	NextSyncAt         *time.Time        `json:"next_sync_at,omitempty"`
	CandidatesFound    int64             `json:"candidates_found"`
	CandidatesImported int64             `json:"candidates_imported"`
	ErrorCount         int               `json:"error_count"`
	ErrorMessage       string            `json:"error_message,omitempty"`
}

// PlatformStats is the per-platform part of Stats
type PlatformStats struct {
	TotalCandidates    int64      `json:"total_candidates"`
	ImportedCandidates int64      `json:"imported_candidates"`
	IsActive           bool       `json:"is_active"`
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
	ErrorCount         int        `json:"error_count"`
}

// Stats is an overview across every integration
type Stats struct {
	TotalIntegrations       int                        `json:"total_integrations"`
	ActiveIntegrations      int                        `json:"active_integrations"`
	TotalCandidatesFound    int64                      `json:"total_candidates_found"`
	TotalCandidatesImported int64                      `json:"total_candidates_imported"`
	LastSyncAt              *time.Time                 `json:"last_sync_at,omitempty"`
	PlatformStats           map[Platform]PlatformStats `json:"platform_stats"`
}
