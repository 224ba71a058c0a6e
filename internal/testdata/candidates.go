// Package testdata generates reproducible candidate fixtures for tests and local demos
package testdata

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

var (
	cities    = []string{"Москва", "Санкт-Петербург", "Бишкек", "Ош", "Казань", "Новосибирск"}
	positions = []string{"Backend Developer", "Frontend Developer", "Data Analyst", "QA Engineer", "DevOps Engineer", "UI/UX Designer"}
	skills    = []string{"Python", "Go", "Java", "JavaScript", "React", "Django", "PostgreSQL", "Docker", "Kubernetes", "Figma", "SQL"}
)

// Candidates returns n normalized candidates for platform. The same seed always
// yields the same people.
func Candidates(seed int64, platform sourcing.Platform, n int) []sourcing.NormalizedCandidate {
	faker := gofakeit.New(seed)

	out := make([]sourcing.NormalizedCandidate, 0, n)
	for i := range n {
		person := faker.Person()

		years := faker.Number(0, 12)
		salaryMin := faker.Number(40, 200) * 1000
		salaryMax := salaryMin + faker.Number(0, 80)*1000

		picked := pickDistinct(faker, skills, faker.Number(1, 3))

		candidate := sourcing.NormalizedCandidate{
			ExternalID:      fmt.Sprintf("%s_%d", platform, 1000+i),
			FirstName:       person.FirstName,
			LastName:        person.LastName,
			Email:           faker.Email(),
			Phone:           person.Contact.Phone,
			Location:        faker.RandomString(cities),
			CurrentPosition: faker.RandomString(positions),
			CurrentCompany:  faker.Company(),
			ExperienceYears: &years,
			Skills:          picked,
			SalaryMin:       &salaryMin,
			SalaryMax:       &salaryMax,
			Summary:         faker.Sentence(12),
			ProfileURL:      faker.URL(),
			RawData:         map[string]any{"source": "generated", "seed": seed},
		}

		// Every fourth person keeps some fields unknown
		if i%4 == 3 {
			candidate.Email = ""
			candidate.ExperienceYears = nil
			candidate.SalaryMin, candidate.SalaryMax = nil, nil
		}

		out = append(out, candidate)
	}

	return out
}

func pickDistinct(faker *gofakeit.Faker, from []string, n int) []string {
	shuffled := append([]string(nil), from...)
	faker.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// Adapter serves generated candidates through the shared search predicate
type Adapter struct {
	platform   sourcing.Platform
	candidates []sourcing.NormalizedCandidate
}

var _ sourcing.Adapter = (*Adapter)(nil)

// NewAdapter creates an adapter over n generated candidates
func NewAdapter(seed int64, platform sourcing.Platform, n int) *Adapter {
	return &Adapter{platform: platform, candidates: Candidates(seed, platform, n)}
}

// Platform returns the platform the adapter pretends to be
func (a *Adapter) Platform() sourcing.Platform {
	return a.platform
}

// Search filters the generated candidates
func (a *Adapter) Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return req.Criteria.Normalized().Filter(a.candidates, req.Limit), nil
}
