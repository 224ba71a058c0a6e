package sourcing

import "context"

// Vault seals credentials at rest
type Vault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// CandidateProfile is the professional part of a promoted account
type CandidateProfile struct {
	Summary         string
	ExperienceYears *int
	CurrentPosition string
	CurrentCompany  string
	Location        string
	Skills          []string
	SalaryMin       *int
	SalaryMax       *int
	LinkedInURL     string
	GithubURL       string
}

// AccountFields describes the internal account created by an import
type AccountFields struct {
	Email        string
	PasswordHash string // Hash of a secret nobody knows
	FirstName    string
	LastName     string
	Phone        string
	Profile      CandidateProfile
}

// AccountCreator is the internal user subsystem. CreateAccount must join the
// transaction carried by ctx when there is one.
type AccountCreator interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, fields AccountFields) (uint, error)
}
