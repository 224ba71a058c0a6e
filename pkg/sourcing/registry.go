package sourcing

import (
	"context"
	"fmt"
)

// IntegrationConfig holds the non-secret settings of a new integration
type IntegrationConfig struct {
	Name              string         `json:"name" validate:"required,max=255"`
	Description       string         `json:"description" validate:"max=2000"`
	IsActive          *bool          `json:"is_active"`                                              // Defaults to true
	AutoSync          *bool          `json:"auto_sync"`                                              // Defaults to true
	SyncIntervalHours int            `json:"sync_interval_hours" validate:"omitempty,min=1,max=720"` // Defaults to 24
	SearchDefaults    SearchCriteria `json:"search_defaults"`
}

// IntegrationUpdate is a partial update; nil fields are left alone
type IntegrationUpdate struct {
	Name              *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Description       *string         `json:"description" validate:"omitempty,max=2000"`
	IsActive          *bool           `json:"is_active"`
	AutoSync          *bool           `json:"auto_sync"`
	SyncIntervalHours *int            `json:"sync_interval_hours" validate:"omitempty,min=1,max=720"`
	SearchDefaults    *SearchCriteria `json:"search_defaults"`
	Credentials       *Credentials    `json:"credentials"` // Only non-empty fields are replaced
}

// CreateIntegration registers a new platform connection in PENDING status
func (s *Service) CreateIntegration(ctx context.Context, platform Platform, cfg IntegrationConfig, creds Credentials, createdBy uint) (*Integration, error) {
	if !platform.Valid() {
		return nil, NewValidationError(fmt.Sprintf("unsupported platform '%s'", platform))
	}
	if err := s.validate.Struct(cfg); err != nil {
		return nil, &DomainError{Code: ErrCodeValidation, Message: "invalid integration config", Err: err}
	}

	criteria := cfg.SearchDefaults.Normalized()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	// One integration per platform
	if _, err := s.store.FindIntegrationByPlatform(ctx, platform); err == nil {
		return nil, NewConflictError(fmt.Sprintf("integration for platform '%s' already exists", platform))
	} else if !IsNotFound(err) {
		return nil, err
	}

	sealed, err := s.sealCredentials(Credentials{}, creds)
	if err != nil {
		return nil, err
	}

	now := s.now()
	integration := &Integration{
		Platform:          platform,
		Name:              cfg.Name,
		Description:       cfg.Description,
		Status:            StatusPending,
		IsActive:          boolOrDefault(cfg.IsActive, true),
		Credentials:       sealed,
		SearchDefaults:    criteria,
		AutoSync:          boolOrDefault(cfg.AutoSync, true),
		SyncIntervalHours: cfg.SyncIntervalHours,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if integration.SyncIntervalHours == 0 {
		integration.SyncIntervalHours = DefaultSyncIntervalHours
	}

	if err := s.store.CreateIntegration(ctx, integration); err != nil {
		return nil, err
	}

	s.appendLog(ctx, integration.ID, OperationCreate, LogSuccess,
		fmt.Sprintf("Integration '%s' created", integration.Name),
		map[string]any{"platform": string(platform), "has_credentials": integration.HasCredentials()})
	s.logger.Info("integration created", "integration_id", integration.ID, "platform", platform)

	return integration, nil
}

// UpdateIntegration applies a partial update to an integration
func (s *Service) UpdateIntegration(ctx context.Context, id uint, update IntegrationUpdate) (*Integration, error) {
	integration, err := s.store.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(update); err != nil {
		return nil, &DomainError{Code: ErrCodeValidation, Message: "invalid integration update", Err: err}
	}

	changed := []string{}
	if update.Name != nil {
		integration.Name = *update.Name
		changed = append(changed, "name")
	}
	if update.Description != nil {
		integration.Description = *update.Description
		changed = append(changed, "description")
	}
	if update.IsActive != nil {
		integration.IsActive = *update.IsActive
		changed = append(changed, "is_active")
	}
	if update.AutoSync != nil {
		integration.AutoSync = *update.AutoSync
		if !integration.AutoSync {
			integration.NextSyncAt = nil
		}
		changed = append(changed, "auto_sync")
	}
	if update.SyncIntervalHours != nil {
		integration.SyncIntervalHours = *update.SyncIntervalHours
		changed = append(changed, "sync_interval_hours")
	}
	if update.SearchDefaults != nil {
		criteria := update.SearchDefaults.Normalized()
		if err := criteria.Validate(); err != nil {
			return nil, err
		}
		integration.SearchDefaults = criteria
		changed = append(changed, "search_defaults")
	}
	if update.Credentials != nil {
		sealed, err := s.sealCredentials(integration.Credentials, *update.Credentials)
		if err != nil {
			return nil, err
		}
		integration.Credentials = sealed
		changed = append(changed, "credentials")
	}

	integration.UpdatedAt = s.now()
	if err := s.store.SaveIntegrationSettings(ctx, integration); err != nil {
		return nil, err
	}

	s.appendLog(ctx, integration.ID, OperationUpdate, LogSuccess,
		fmt.Sprintf("Integration '%s' updated", integration.Name),
		map[string]any{"fields": changed})

	return integration, nil
}

// GetIntegration returns an integration by id
func (s *Service) GetIntegration(ctx context.Context, id uint) (*Integration, error) {
	return s.store.GetIntegration(ctx, id)
}

// ListIntegrations returns every integration
func (s *Service) ListIntegrations(ctx context.Context) ([]*Integration, error) {
	return s.store.ListIntegrations(ctx)
}

// DeleteIntegration removes an integration together with its candidates and logs
func (s *Service) DeleteIntegration(ctx context.Context, id uint) error {
	if _, err := s.store.GetIntegration(ctx, id); err != nil {
		return err
	}

	// Wait for any running sync on this integration
	unlock, err := s.locker.Lock(ctx, integrationLockKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.DeleteIntegration(ctx, id); err != nil {
		return err
	}

	s.logger.Info("integration deleted", "integration_id", id)
	return nil
}

// SupportedPlatforms lists every platform and whether it can be searched
func (s *Service) SupportedPlatforms() []PlatformInfo {
	out := make([]PlatformInfo, 0, len(Platforms))
	for _, platform := range Platforms {
		out = append(out, PlatformInfo{
			Value:       platform,
			Name:        platform.DisplayName(),
			Description: platform.Description(),
			Supported:   s.adapters.Supports(platform),
		})
	}
	return out
}

// sealCredentials encrypts every non-empty field of plain over the stored bundle.
// Absent fields keep their stored value and are never encrypted as empty strings.
func (s *Service) sealCredentials(stored, plain Credentials) (Credentials, error) {
	out := stored
	fields := []struct {
		dst   *string
		value string
		name  string
	}{
		{&out.APIKey, plain.APIKey, "api_key"},
		{&out.APISecret, plain.APISecret, "api_secret"},
		{&out.AccessToken, plain.AccessToken, "access_token"},
		{&out.RefreshToken, plain.RefreshToken, "refresh_token"},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		sealed, err := s.vault.Encrypt(f.value)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to encrypt %s: %w", f.name, err)
		}
		*f.dst = sealed
	}

	return out, nil
}

// openCredentials decrypts a stored bundle for an adapter call
func (s *Service) openCredentials(sealed Credentials) (Credentials, error) {
	var out Credentials
	fields := []struct {
		dst   *string
		value string
		name  string
	}{
		{&out.APIKey, sealed.APIKey, "api_key"},
		{&out.APISecret, sealed.APISecret, "api_secret"},
		{&out.AccessToken, sealed.AccessToken, "access_token"},
		{&out.RefreshToken, sealed.RefreshToken, "refresh_token"},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		plain, err := s.vault.Decrypt(f.value)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to decrypt %s: %w", f.name, err)
		}
		*f.dst = plain
	}

	return out, nil
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
