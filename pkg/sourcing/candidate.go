package sourcing

import (
	"maps"
	"slices"
	"time"
)

// NewExternalCandidate builds a fresh, not yet imported candidate owned by an integration
func NewExternalCandidate(integration *Integration, in NormalizedCandidate, now time.Time) *ExternalCandidate {
	id := integration.ID
	c := &ExternalCandidate{
		IntegrationID: &id,
		Platform:      integration.Platform,
		NormalizedCandidate: NormalizedCandidate{
			ExternalID: in.ExternalID,
		},
		CreatedAt: now,
	}
	c.Apply(in, now)
	return c
}

// Apply merges an incoming record into the stored one. Fields present in the
// incoming record win; absent fields keep their stored value.
func (c *ExternalCandidate) Apply(in NormalizedCandidate, now time.Time) {
	overwrite(&c.FirstName, in.FirstName)
	overwrite(&c.LastName, in.LastName)
	overwrite(&c.Email, in.Email)
	overwrite(&c.Phone, in.Phone)
	overwrite(&c.Location, in.Location)
	overwrite(&c.CurrentPosition, in.CurrentPosition)
	overwrite(&c.CurrentCompany, in.CurrentCompany)
	overwrite(&c.Summary, in.Summary)
	overwrite(&c.ProfileURL, in.ProfileURL)
	overwrite(&c.ResumeURL, in.ResumeURL)
	overwrite(&c.LinkedInURL, in.LinkedInURL)
	overwrite(&c.GithubURL, in.GithubURL)

	if in.ExperienceYears != nil {
		c.ExperienceYears = intPtr(*in.ExperienceYears)
	}
	if in.SalaryMin != nil {
		c.SalaryMin = intPtr(*in.SalaryMin)
	}
	if in.SalaryMax != nil {
		c.SalaryMax = intPtr(*in.SalaryMax)
	}
	if in.Skills != nil {
		c.Skills = slices.Clone(in.Skills)
	}
	if in.RawData != nil {
		c.RawData = maps.Clone(in.RawData)
	}

	synced := now
	c.LastSyncedAt = &synced
	c.UpdatedAt = now
}

// Clone returns a deep copy of the candidate
func (c *ExternalCandidate) Clone() *ExternalCandidate {
	out := *c
	out.Skills = slices.Clone(c.Skills)
	out.RawData = maps.Clone(c.RawData)
	out.IntegrationID = clonePtr(c.IntegrationID)
	out.ImportedUserID = clonePtr(c.ImportedUserID)
	out.ImportedAt = clonePtr(c.ImportedAt)
	out.LastSyncedAt = clonePtr(c.LastSyncedAt)
	out.ExperienceYears = clonePtr(c.ExperienceYears)
	out.SalaryMin = clonePtr(c.SalaryMin)
	out.SalaryMax = clonePtr(c.SalaryMax)
	return &out
}

func overwrite(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func intPtr(v int) *int {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
