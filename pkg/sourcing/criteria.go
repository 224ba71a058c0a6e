package sourcing

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold normalizes text for case-insensitive comparison. A Caser is stateful, so
// one is built per call.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// NormalizeList trims entries, drops blanks and removes case-insensitive duplicates
// while keeping the first occurrence order
func NormalizeList(items []string) []string {
	if items == nil {
		return nil
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		key := fold(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}

	return out
}

// Normalized returns a copy of the criteria with normalized list fields
func (c SearchCriteria) Normalized() SearchCriteria {
	out := c
	out.Keywords = NormalizeList(c.Keywords)
	out.Locations = NormalizeList(c.Locations)
	out.ExperienceMin = clonePtr(c.ExperienceMin)
	out.ExperienceMax = clonePtr(c.ExperienceMax)
	out.SalaryMin = clonePtr(c.SalaryMin)
	out.SalaryMax = clonePtr(c.SalaryMax)
	return out
}

// Validate checks the numeric ranges of the criteria
func (c SearchCriteria) Validate() error {
	if c.ExperienceMin != nil && *c.ExperienceMin < 0 {
		return NewValidationError("experience_min cannot be negative")
	}
	if c.ExperienceMax != nil && *c.ExperienceMax < 0 {
		return NewValidationError("experience_max cannot be negative")
	}
	if c.ExperienceMin != nil && c.ExperienceMax != nil && *c.ExperienceMin > *c.ExperienceMax {
		return NewValidationError("experience_min cannot exceed experience_max")
	}
	if c.SalaryMin != nil && *c.SalaryMin < 0 {
		return NewValidationError("salary_min cannot be negative")
	}
	if c.SalaryMax != nil && *c.SalaryMax < 0 {
		return NewValidationError("salary_max cannot be negative")
	}
	if c.SalaryMin != nil && c.SalaryMax != nil && *c.SalaryMin > *c.SalaryMax {
		return NewValidationError("salary_min cannot exceed salary_max")
	}
	return nil
}

// Matches applies the search predicate to a single candidate. Unknown candidate
// values never violate a bound.
func (c SearchCriteria) Matches(candidate NormalizedCandidate) bool {
	return c.matchesKeywords(candidate) &&
		c.matchesLocations(candidate) &&
		c.matchesExperience(candidate) &&
		c.matchesSalary(candidate)
}

// Filter returns the candidates matching the criteria in their original order, capped at limit
func (c SearchCriteria) Filter(candidates []NormalizedCandidate, limit int) []NormalizedCandidate {
	out := make([]NormalizedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.Matches(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// matchesKeywords checks any keyword against the skills and current role
func (c SearchCriteria) matchesKeywords(candidate NormalizedCandidate) bool {
	keywords := foldAll(c.Keywords)
	if len(keywords) == 0 {
		return true
	}

	text := fold(strings.Join(append(slices.Clone(candidate.Skills), candidate.CurrentPosition), " "))
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// matchesLocations checks the candidate location against the requested locations
func (c SearchCriteria) matchesLocations(candidate NormalizedCandidate) bool {
	locations := foldAll(c.Locations)
	if len(locations) == 0 || candidate.Location == "" {
		return true
	}

	location := fold(candidate.Location)
	for _, loc := range locations {
		if strings.Contains(location, loc) {
			return true
		}
	}
	return false
}

func (c SearchCriteria) matchesExperience(candidate NormalizedCandidate) bool {
	if candidate.ExperienceYears == nil {
		return true
	}

	years := *candidate.ExperienceYears
	if c.ExperienceMin != nil && years < *c.ExperienceMin {
		return false
	}
	if c.ExperienceMax != nil && years > *c.ExperienceMax {
		return false
	}
	return true
}

// matchesSalary is an overlap test; each side only applies when both bounds are known
func (c SearchCriteria) matchesSalary(candidate NormalizedCandidate) bool {
	if c.SalaryMin != nil && candidate.SalaryMax != nil && *candidate.SalaryMax < *c.SalaryMin {
		return false
	}
	if c.SalaryMax != nil && candidate.SalaryMin != nil && *candidate.SalaryMin > *c.SalaryMax {
		return false
	}
	return true
}

func foldAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if f := fold(item); f != "" {
			out = append(out, f)
		}
	}
	return out
}
