package sourcing

import (
	"context"
	"fmt"
	"slices"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ImportRequest asks for one external candidate to be promoted
type ImportRequest struct {
	ExternalCandidateID uint   `json:"external_candidate_id"`
	ImportedBy          uint   `json:"imported_by"`
	Notes               string `json:"notes"`
}

// ImportResult is a completed promotion
type ImportResult struct {
	Candidate *ExternalCandidate `json:"candidate"`
	UserID    uint               `json:"user_id"`
	Import    *CandidateImport   `json:"import"`
}

// ImportCandidate promotes an external candidate into an internal account.
// The account, the imported flag, the import record and the counter are
// written in one transaction; a candidate is promoted at most once.
func (s *Service) ImportCandidate(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	candidate, err := s.store.GetCandidate(ctx, req.ExternalCandidateID)
	if err != nil {
		return nil, err
	}
	if candidate.IsImported {
		err := alreadyImported(candidate.ID)
		s.recordImportFailure(ctx, candidate, err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, candidateLockKey(candidate.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// The plaintext is discarded, so nobody can log in with it
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary credential: %w", err)
	}

	result := &ImportResult{}
	err = s.store.Transaction(ctx, func(ctx context.Context) error {
		// A racing import may have won while this one waited for the lock
		current, err := s.store.GetCandidate(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if current.IsImported {
			return alreadyImported(candidate.ID)
		}
		candidate = current

		email, err := s.accountEmail(ctx, candidate)
		if err != nil {
			return err
		}

		userID, err := s.accounts.CreateAccount(ctx, accountFields(candidate, email, string(hash)))
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		now := s.now()
		if err := s.store.MarkCandidateImported(ctx, candidate.ID, userID, now); err != nil {
			return err
		}

		record := &CandidateImport{
			ExternalCandidateID: candidate.ID,
			UserID:              userID,
			ImportedBy:          req.ImportedBy,
			Outcome:             ImportSuccess,
			Notes:               req.Notes,
			CreatedAt:           now,
		}
		if err := s.store.CreateImport(ctx, record); err != nil {
			return err
		}

		if candidate.IntegrationID != nil {
			if err := s.store.AddCandidatesImported(ctx, *candidate.IntegrationID, 1); err != nil {
				return err
			}
		}

		candidate.IsImported = true
		candidate.ImportedUserID = &userID
		candidate.ImportedAt = &now
		result.Candidate = candidate
		result.UserID = userID
		result.Import = record
		return nil
	})
	if err != nil {
		s.recordImportFailure(ctx, candidate, err)
		return nil, err
	}

	if candidate.IntegrationID != nil {
		s.appendLog(ctx, *candidate.IntegrationID, OperationImport, LogSuccess,
			fmt.Sprintf("Candidate %s imported", candidate.FullName()),
			map[string]any{"external_candidate_id": candidate.ID, "user_id": result.UserID, "imported_by": req.ImportedBy})
	}
	s.metrics.RecordImport("success")
	s.logger.Info("candidate imported", "external_candidate_id", candidate.ID, "user_id", result.UserID)

	return result, nil
}

func alreadyImported(id uint) error {
	return NewConflictError(fmt.Sprintf("candidate %d is already imported", id))
}

// accountEmail picks the address of the new account, avoiding existing accounts
func (s *Service) accountEmail(ctx context.Context, candidate *ExternalCandidate) (string, error) {
	email := candidate.Email
	if email == "" {
		email = fmt.Sprintf("imported_%s@%s.local", candidate.ExternalID, candidate.Platform)
	}

	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		email = fmt.Sprintf("imported_%s_%d@%s.local", candidate.ExternalID, s.now().UnixNano(), candidate.Platform)
	}

	return email, nil
}

// recordImportFailure audits a failed import on the owning integration
func (s *Service) recordImportFailure(ctx context.Context, candidate *ExternalCandidate, cause error) {
	outcome := "error"
	if IsConflict(cause) {
		outcome = "conflict"
	} else {
		sentry.CaptureException(cause)
	}
	s.metrics.RecordImport(outcome)

	if candidate.IntegrationID == nil {
		return
	}

	bctx, cancel := s.detached(ctx)
	defer cancel()
	s.appendLog(bctx, *candidate.IntegrationID, OperationImport, LogError,
		fmt.Sprintf("Import of candidate %d failed: %v", candidate.ID, cause),
		map[string]any{"external_candidate_id": candidate.ID, "error": cause.Error()})
}

func accountFields(candidate *ExternalCandidate, email, passwordHash string) AccountFields {
	firstName := candidate.FirstName
	if firstName == "" {
		firstName = "Импортированный"
	}
	lastName := candidate.LastName
	if lastName == "" {
		lastName = "Кандидат"
	}

	return AccountFields{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        candidate.Phone,
		Profile: CandidateProfile{
			Summary:         candidate.Summary,
			ExperienceYears: clonePtr(candidate.ExperienceYears),
			CurrentPosition: candidate.CurrentPosition,
			CurrentCompany:  candidate.CurrentCompany,
			Location:        candidate.Location,
			Skills:          slices.Clone(candidate.Skills),
			SalaryMin:       clonePtr(candidate.SalaryMin),
			SalaryMax:       clonePtr(candidate.SalaryMax),
			LinkedInURL:     candidate.LinkedInURL,
			GithubURL:       candidate.GithubURL,
		},
	}
}
