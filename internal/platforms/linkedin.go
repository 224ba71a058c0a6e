package platforms

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

const linkedInMaxPage = 100

// LinkedInSource searches people through the LinkedIn REST API
type LinkedInSource struct {
	baseURL string
	client  *http.Client
	oauth   *oauth2.Config
	now     func() time.Time
}

// NewLinkedInSource creates a LinkedIn source. client may be nil.
func NewLinkedInSource(settings Settings, client *http.Client) *LinkedInSource {
	source := &LinkedInSource{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		client:  client,
		now:     time.Now,
	}
	if settings.ClientID != "" {
		source.oauth = &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     linkedin.Endpoint,
		}
	}
	return source
}

type linkedInLocalized struct {
	Localized map[string]string `json:"localized"`
}

// linkedInLocales are preferred in order; other locales fall back to the smallest key
var linkedInLocales = []string{"en_US", "ru_RU"}

func (l linkedInLocalized) value() string {
	for _, locale := range linkedInLocales {
		if v, ok := l.Localized[locale]; ok {
			return v
		}
	}
	if len(l.Localized) == 0 {
		return ""
	}
	return l.Localized[slices.Min(slices.Collect(maps.Keys(l.Localized)))]
}

type linkedInDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type linkedInPosition struct {
	Company struct {
		Name linkedInLocalized `json:"name"`
	} `json:"company"`
	StartDate *linkedInDate `json:"startDate"`
	EndDate   *linkedInDate `json:"endDate"`
}

type linkedInProfile struct {
	ID        string            `json:"id"`
	FirstName linkedInLocalized `json:"firstName"`
	LastName  linkedInLocalized `json:"lastName"`
	Headline  linkedInLocalized `json:"headline"`
	Location  struct {
		Name string `json:"name"`
	} `json:"location"`
	Industry string `json:"industry"`
}

// Search runs a people search and loads profile, positions and skills per hit
func (s *LinkedInSource) Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	client, err := bearerClient(ctx, s.client, req.Credentials, s.oauth)
	if err != nil {
		return nil, err
	}

	count := req.Limit
	if count <= 0 || count > linkedInMaxPage {
		count = linkedInMaxPage
	}

	query := url.Values{}
	query.Set("count", strconv.Itoa(count))
	query.Set("start", "0")
	if len(req.Criteria.Keywords) > 0 {
		query.Set("keywords", strings.Join(req.Criteria.Keywords, " "))
	}
	if len(req.Criteria.Locations) > 0 {
		query.Set("location", strings.Join(req.Criteria.Locations, ","))
	}

	var search struct {
		Elements []struct {
			Person struct {
				ID string `json:"id"`
			} `json:"person"`
		} `json:"elements"`
	}
	if err := getJSON(ctx, client, s.baseURL+"/peopleSearch", query, s.headers(), &search); err != nil {
		return nil, fmt.Errorf("people search: %w", err)
	}

	candidates := make([]sourcing.NormalizedCandidate, 0, len(search.Elements))
	for _, element := range search.Elements {
		if element.Person.ID == "" {
			continue
		}

		candidate, err := s.profile(ctx, client, element.Person.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A single broken profile does not spoil the page
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (s *LinkedInSource) profile(ctx context.Context, client *http.Client, id string) (sourcing.NormalizedCandidate, error) {
	base := fmt.Sprintf("%s/people/(id:%s)", s.baseURL, url.PathEscape(id))

	var profile linkedInProfile
	query := url.Values{"projection": {"(id,firstName,lastName,headline,location,industry)"}}
	if err := getJSON(ctx, client, base, query, s.headers(), &profile); err != nil {
		return sourcing.NormalizedCandidate{}, fmt.Errorf("profile %s: %w", id, err)
	}

	var positions struct {
		Elements []linkedInPosition `json:"elements"`
	}
	query = url.Values{"count": {"10"}}
	if err := getJSON(ctx, client, base+"/positions", query, s.headers(), &positions); err != nil {
		return sourcing.NormalizedCandidate{}, fmt.Errorf("positions %s: %w", id, err)
	}

	var skills struct {
		Elements []struct {
			Name linkedInLocalized `json:"name"`
		} `json:"elements"`
	}
	query = url.Values{"count": {"50"}}
	if err := getJSON(ctx, client, base+"/skills", query, s.headers(), &skills); err != nil {
		return sourcing.NormalizedCandidate{}, fmt.Errorf("skills %s: %w", id, err)
	}

	var skillNames []string
	for _, skill := range skills.Elements {
		if name := skill.Name.value(); name != "" {
			skillNames = append(skillNames, name)
		}
	}

	link := "https://www.linkedin.com/in/" + id
	headline := profile.Headline.value()

	return sourcing.NormalizedCandidate{
		ExternalID:      "linkedin_" + id,
		FirstName:       profile.FirstName.value(),
		LastName:        profile.LastName.value(),
		Location:        profile.Location.Name,
		CurrentPosition: headline,
		CurrentCompany:  currentCompany(positions.Elements),
		ExperienceYears: experienceYears(positions.Elements, s.now()),
		Skills:          skillNames,
		Summary:         headline,
		ProfileURL:      link,
		LinkedInURL:     link,
		RawData: map[string]any{
			"linkedin_id": id,
			"industry":    profile.Industry,
		},
	}, nil
}

func (s *LinkedInSource) headers() map[string]string {
	return map[string]string{"X-Restli-Protocol-Version": "2.0.0"}
}

// experienceYears sums position spans in whole years. Open positions run until now.
func experienceYears(positions []linkedInPosition, now time.Time) *int {
	if len(positions) == 0 {
		return nil
	}

	months := 0
	for _, position := range positions {
		if position.StartDate == nil || position.StartDate.Year == 0 {
			continue
		}

		startMonth := position.StartDate.Month
		if startMonth == 0 {
			startMonth = 1
		}

		endYear, endMonth := now.Year(), int(now.Month())
		if position.EndDate != nil && position.EndDate.Year != 0 {
			endYear, endMonth = position.EndDate.Year, position.EndDate.Month
			if endMonth == 0 {
				endMonth = 12
			}
		}

		if span := (endYear-position.StartDate.Year)*12 + (endMonth - startMonth); span > 0 {
			months += span
		}
	}

	return intPtr(months / 12)
}

// currentCompany prefers an open position and falls back to the first listed
func currentCompany(positions []linkedInPosition) string {
	for _, position := range positions {
		if position.EndDate == nil {
			if name := position.Company.Name.value(); name != "" {
				return name
			}
		}
	}
	if len(positions) > 0 {
		return positions[0].Company.Name.value()
	}
	return ""
}
