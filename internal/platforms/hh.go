package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"golang.org/x/oauth2"
)

const hhMaxPage = 100

// hhEndpoint is the OAuth endpoint of hh.ru
var hhEndpoint = oauth2.Endpoint{
	AuthURL:  "https://hh.ru/oauth/authorize",
	TokenURL: "https://hh.ru/oauth/token",
}

// HHSource searches resumes through the hh.ru API
type HHSource struct {
	baseURL string
	client  *http.Client
	oauth   *oauth2.Config
}

// NewHHSource creates an hh.ru source. client may be nil.
func NewHHSource(settings Settings, client *http.Client) *HHSource {
	source := &HHSource{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		client:  client,
	}
	if settings.ClientID != "" {
		source.oauth = &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     hhEndpoint,
		}
	}
	return source
}

type hhResume struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Title     string `json:"title"`
	Area      struct {
		Name string `json:"name"`
	} `json:"area"`
	Salary *struct {
		Amount   int    `json:"amount"`
		Currency string `json:"currency"`
	} `json:"salary"`
	TotalExperience *struct {
		Months int `json:"months"`
	} `json:"total_experience"`
	Experience []struct {
		Company  string `json:"company"`
		Position string `json:"position"`
	} `json:"experience"`
	SkillSet     []string `json:"skill_set"`
	AlternateURL string   `json:"alternate_url"`
	Contact      []struct {
		Type struct {
			ID string `json:"id"`
		} `json:"type"`
		Value any `json:"value"`
	} `json:"contact"`
}

// Search queries /resumes with the joined keywords
func (s *HHSource) Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	client, err := bearerClient(ctx, s.client, req.Credentials, s.oauth)
	if err != nil {
		return nil, err
	}

	perPage := req.Limit
	if perPage <= 0 || perPage > hhMaxPage {
		perPage = hhMaxPage
	}

	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", "0")
	if len(req.Criteria.Keywords) > 0 {
		query.Set("text", strings.Join(req.Criteria.Keywords, " "))
	}

	var response struct {
		Items []hhResume `json:"items"`
	}
	if err := getJSON(ctx, client, s.baseURL+"/resumes", query, nil, &response); err != nil {
		return nil, fmt.Errorf("resume search: %w", err)
	}

	candidates := make([]sourcing.NormalizedCandidate, 0, len(response.Items))
	for _, item := range response.Items {
		if item.ID == "" {
			continue
		}
		candidates = append(candidates, item.normalize())
	}
	return candidates, nil
}

func (r hhResume) normalize() sourcing.NormalizedCandidate {
	candidate := sourcing.NormalizedCandidate{
		ExternalID:      "hh_" + r.ID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Location:        r.Area.Name,
		CurrentPosition: r.Title,
		Skills:          r.SkillSet,
		ProfileURL:      r.AlternateURL,
		ResumeURL:       r.AlternateURL,
		RawData: map[string]any{
			"hh_id": r.ID,
		},
	}

	if r.TotalExperience != nil {
		candidate.ExperienceYears = intPtr(r.TotalExperience.Months / 12)
	}
	if r.Salary != nil && r.Salary.Amount > 0 {
		candidate.SalaryMin = intPtr(r.Salary.Amount)
		candidate.SalaryMax = intPtr(r.Salary.Amount)
		candidate.RawData["salary_currency"] = r.Salary.Currency
	}
	if len(r.Experience) > 0 {
		candidate.CurrentCompany = r.Experience[0].Company
	}

	for _, contact := range r.Contact {
		switch contact.Type.ID {
		case "email":
			if email, ok := contact.Value.(string); ok {
				candidate.Email = email
			}
		case "cell", "home", "work":
			if phone, ok := contact.Value.(map[string]any); ok && candidate.Phone == "" {
				if formatted, ok := phone["formatted"].(string); ok {
					candidate.Phone = normalizePhone(formatted, "RU")
				}
			}
		}
	}

	return candidate
}
