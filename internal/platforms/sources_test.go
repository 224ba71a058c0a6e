package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func TestLinkedInSource(t *testing.T) {
	localized := func(v string) map[string]any {
		return map[string]any{"localized": map[string]string{"en_US": v}}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))

		switch {
		case r.URL.Path == "/peopleSearch":
			assert.Equal(t, "golang", r.URL.Query().Get("keywords"))
			writeJSON(w, map[string]any{"elements": []any{
				map[string]any{"person": map[string]any{"id": "abc"}},
				map[string]any{"person": map[string]any{"id": "broken"}},
			}})
		case r.URL.Path == "/people/(id:abc)":
			writeJSON(w, map[string]any{
				"id":        "abc",
				"firstName": localized("Jane"),
				"lastName":  localized("Doe"),
				"headline":  localized("Go Engineer"),
				"location":  map[string]any{"name": "Berlin"},
				"industry":  "Software",
			})
		case r.URL.Path == "/people/(id:abc)/positions":
			writeJSON(w, map[string]any{"elements": []any{
				map[string]any{
					"company":   map[string]any{"name": localized("Acme")},
					"startDate": map[string]any{"year": 2022, "month": 1},
				},
				map[string]any{
					"company":   map[string]any{"name": localized("Initech")},
					"startDate": map[string]any{"year": 2018, "month": 1},
					"endDate":   map[string]any{"year": 2021, "month": 1},
				},
			}})
		case r.URL.Path == "/people/(id:abc)/skills":
			writeJSON(w, map[string]any{"elements": []any{
				map[string]any{"name": localized("Go")},
				map[string]any{"name": localized("gRPC")},
			}})
		case strings.HasPrefix(r.URL.Path, "/people/(id:broken)"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	source := NewLinkedInSource(Settings{BaseURL: server.URL}, server.Client())
	source.now = func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }

	results, err := source.Search(context.Background(), sourcing.SearchRequest{
		Criteria:    sourcing.SearchCriteria{Keywords: []string{"golang"}},
		Credentials: sourcing.Credentials{AccessToken: "token-123"},
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	jane := results[0]
	assert.Equal(t, "linkedin_abc", jane.ExternalID)
	assert.Equal(t, "Jane Doe", jane.FullName())
	assert.Equal(t, "Berlin", jane.Location)
	assert.Equal(t, "Go Engineer", jane.CurrentPosition)
	assert.Equal(t, "Acme", jane.CurrentCompany)
	assert.Equal(t, []string{"Go", "gRPC"}, jane.Skills)
	assert.Equal(t, "https://www.linkedin.com/in/abc", jane.LinkedInURL)
	require.NotNil(t, jane.ExperienceYears)
	// 36 months at Initech plus 36 at Acme
	assert.Equal(t, 6, *jane.ExperienceYears)
}

func TestLiveSourcesRequireCredentials(t *testing.T) {
	ctx := context.Background()
	req := sourcing.SearchRequest{Limit: 5}

	_, err := NewLinkedInSource(Settings{}, nil).Search(ctx, req)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewHHSource(Settings{}, nil).Search(ctx, req)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewLalafoSource(Settings{}, nil).Search(ctx, req)
	assert.ErrorIs(t, err, ErrNotConfigured)

	// A refresh token alone needs an OAuth client to be useful
	req.Credentials = sourcing.Credentials{RefreshToken: "refresh"}
	_, err = NewHHSource(Settings{}, nil).Search(ctx, req)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHHSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		assert.Equal(t, "python django", r.URL.Query().Get("text"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{
			"id": "777",
			"first_name": "Пётр",
			"last_name": "Соколов",
			"title": "Python Developer",
			"area": {"name": "Москва"},
			"salary": {"amount": 200000, "currency": "RUR"},
			"total_experience": {"months": 41},
			"experience": [{"company": "Яндекс", "position": "Developer"}],
			"skill_set": ["Python", "Django"],
			"alternate_url": "https://hh.ru/resume/777",
			"contact": [
				{"type": {"id": "email"}, "value": "petr@example.com"},
				{"type": {"id": "cell"}, "value": {"formatted": "+7 (916) 123-45-67"}}
			]
		}, {"id": ""}]}`))
	}))
	defer server.Close()

	source := NewHHSource(Settings{BaseURL: server.URL}, server.Client())
	results, err := source.Search(context.Background(), sourcing.SearchRequest{
		Criteria:    sourcing.SearchCriteria{Keywords: []string{"python", "django"}},
		Credentials: sourcing.Credentials{AccessToken: "hh-token"},
		Limit:       20,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	petr := results[0]
	assert.Equal(t, "hh_777", petr.ExternalID)
	assert.Equal(t, "Яндекс", petr.CurrentCompany)
	assert.Equal(t, "petr@example.com", petr.Email)
	assert.Equal(t, "+79161234567", petr.Phone)
	assert.Equal(t, 3, *petr.ExperienceYears)
	assert.Equal(t, 200000, *petr.SalaryMin)
	assert.Equal(t, 200000, *petr.SalaryMax)
	assert.Equal(t, "RUR", petr.RawData["salary_currency"])
}

func TestLalafoSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jobs", r.URL.Query().Get("category"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{
			"id": 9001,
			"title": "Ищу работу Python разработчик",
			"description": "Python, Flask, PostgreSQL. 3 года опыта. Зарплата 60000-90000 сом",
			"created_at": 1700000000,
			"location": {"name": "Бишкек"},
			"category": {"name": "Работа"},
			"user": {"id": 55, "name": "Азамат Беков", "phone": "0700 123 456"}
		}, {
			"id": 9002,
			"title": "Продам велосипед",
			"description": "Почти новый",
			"category": {"name": "Спорт"},
			"user": {"id": 56, "name": "Кто-то"}
		}]}`))
	}))
	defer server.Close()

	source := NewLalafoSource(Settings{BaseURL: server.URL}, server.Client())
	results, err := source.Search(context.Background(), sourcing.SearchRequest{
		Credentials: sourcing.Credentials{AccessToken: "lalafo-token"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	azamat := results[0]
	assert.Equal(t, "lalafo_9001", azamat.ExternalID)
	assert.Equal(t, "Азамат", azamat.FirstName)
	assert.Equal(t, "Беков", azamat.LastName)
	assert.Equal(t, "Разработчик", azamat.CurrentPosition)
	assert.Equal(t, "Не указано", azamat.CurrentCompany)
	assert.Equal(t, "+996700123456", azamat.Phone)
	assert.Equal(t, []string{"Python", "Flask", "PostgreSQL"}, azamat.Skills)
	assert.Equal(t, 3, *azamat.ExperienceYears)
	assert.Equal(t, 60000, *azamat.SalaryMin)
	assert.Equal(t, 90000, *azamat.SalaryMax)
	assert.Equal(t, "https://lalafo.kg/profile/55", azamat.ProfileURL)
}

func TestExtractors(t *testing.T) {
	t.Run("experience", func(t *testing.T) {
		cases := map[string]*int{
			"2 года опыта в backend":     intPtr(2),
			"5 years experience with Go": intPtr(5),
			"Опыт работы 7 лет":          intPtr(7),
			"стаж 10 лет":                intPtr(10),
			"4+ years in development":    intPtr(4),
			"Без опыта, готов учиться":   nil,
		}
		for text, want := range cases {
			assert.Equal(t, want, extractExperience(text), text)
		}
	})

	t.Run("salary", func(t *testing.T) {
		low, high := extractSalary("от 40000 до 50000 сом")
		assert.Equal(t, 40000, *low)
		assert.Equal(t, 50000, *high)

		low, high = extractSalary("оклад 80000 ₽")
		assert.Equal(t, 80000, *low)
		assert.Equal(t, 80000, *high)

		low, high = extractSalary("по договорённости")
		assert.Nil(t, low)
		assert.Nil(t, high)
	})

	t.Run("position", func(t *testing.T) {
		assert.Equal(t, "Frontend Developer", extractPosition("Требуется Frontend Developer"))
		assert.Equal(t, "Дизайнер", extractPosition("Графический дизайнер"))
		assert.Equal(t, "Менеджер", extractPosition("Менеджер по продажам"))
		assert.Equal(t, "Разработчик", extractPosition(""))
		assert.Equal(t, "Бухгалтер", extractPosition("Бухгалтер"))
	})

	t.Run("skills", func(t *testing.T) {
		assert.Equal(t, []string{"Docker", "Figma"}, extractSkills("figma и DOCKER"))
		assert.Empty(t, extractSkills("ничего подходящего"))
	})

	t.Run("truncate", func(t *testing.T) {
		assert.Equal(t, "абв", truncate("абв", 3))
		assert.Equal(t, "аб...", truncate("абв", 2))
	})

	t.Run("phone", func(t *testing.T) {
		assert.Equal(t, "+74951234567", normalizePhone("+7 495 123-45-67", "RU"))
		assert.Equal(t, "not a phone", normalizePhone("  not a phone ", "RU"))
		assert.Empty(t, normalizePhone("   ", "KG"))
	})

	t.Run("linkedin locale", func(t *testing.T) {
		both := linkedInLocalized{Localized: map[string]string{"ru_RU": "Иван", "en_US": "Ivan"}}
		assert.Equal(t, "Ivan", both.value())

		russian := linkedInLocalized{Localized: map[string]string{"de_DE": "Johann", "ru_RU": "Иван"}}
		assert.Equal(t, "Иван", russian.value())

		others := linkedInLocalized{Localized: map[string]string{"fr_FR": "Jean", "de_DE": "Johann", "uk_UA": "Іван"}}
		for range 20 {
			assert.Equal(t, "Johann", others.value())
		}

		assert.Empty(t, linkedInLocalized{}.value())
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := LoadConfig("")
		require.NoError(t, err)

		settings := config.For(sourcing.PlatformHHRu)
		assert.Equal(t, "https://api.hh.ru", settings.BaseURL)
		assert.Equal(t, DefaultTimeout, settings.Timeout)
		assert.Equal(t, DefaultRequestsPerMinute, settings.RequestsPerMinute)
		assert.True(t, settings.LiveEnabled())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "platforms.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`platforms:
  linkedin:
    base_url: http://localhost:9000
    timeout: 15s
    requests_per_minute: 30
    client_id: client
  lalafo:
    live: false
`), 0o600))

		config, err := LoadConfig(path)
		require.NoError(t, err)

		linkedIn := config.For(sourcing.PlatformLinkedIn)
		assert.Equal(t, "http://localhost:9000", linkedIn.BaseURL)
		assert.Equal(t, 15*time.Second, linkedIn.Timeout)
		assert.Equal(t, 30, linkedIn.RequestsPerMinute)
		assert.Equal(t, "client", linkedIn.ClientID)

		assert.False(t, config.For(sourcing.PlatformLalafo).LiveEnabled())
	})

	t.Run("unknown platform", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "platforms.yaml")
		require.NoError(t, os.WriteFile(path, []byte("platforms:\n  monster:\n    timeout: 1s\n"), 0o600))

		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "monster")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
