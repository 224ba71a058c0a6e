package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

const (
	lalafoMaxPage    = 100
	lalafoSummaryMax = 500
	lalafoCompany    = "Не указано"
)

// LalafoSource turns job board listings on lalafo.kg into candidates
type LalafoSource struct {
	baseURL string
	client  *http.Client
}

// NewLalafoSource creates a Lalafo source. client may be nil.
func NewLalafoSource(settings Settings, client *http.Client) *LalafoSource {
	return &LalafoSource{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		client:  client,
	}
}

type lalafoItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   any    `json:"created_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"user"`
}

// Search lists recent postings in the jobs category
func (s *LalafoSource) Search(ctx context.Context, req sourcing.SearchRequest) ([]sourcing.NormalizedCandidate, error) {
	client, err := bearerClient(ctx, s.client, req.Credentials, nil)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > lalafoMaxPage {
		limit = lalafoMaxPage
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", "0")
	query.Set("category", "jobs")
	query.Set("sort", "date_desc")
	if len(req.Criteria.Keywords) > 0 {
		query.Set("search", strings.Join(req.Criteria.Keywords, " "))
	}

	var response struct {
		Data []lalafoItem `json:"data"`
	}
	if err := getJSON(ctx, client, s.baseURL+"/search", query, nil, &response); err != nil {
		return nil, fmt.Errorf("listing search: %w", err)
	}

	candidates := make([]sourcing.NormalizedCandidate, 0, len(response.Data))
	for _, item := range response.Data {
		if !item.isJobPosting() {
			continue
		}
		candidates = append(candidates, item.normalize())
	}
	return candidates, nil
}

var jobTitleWords = []string{
	"работа", "вакансия", "job", "vacancy", "developer", "разработчик",
	"программист", "programmer", "engineer", "инженер", "designer", "дизайнер",
}

func (i lalafoItem) isJobPosting() bool {
	category := strings.ToLower(i.Category.Name)
	if strings.Contains(category, "работа") || strings.Contains(category, "job") || strings.Contains(category, "вакансия") {
		return true
	}

	title := strings.ToLower(i.Title)
	for _, word := range jobTitleWords {
		if strings.Contains(title, word) {
			return true
		}
	}
	return false
}

func (i lalafoItem) normalize() sourcing.NormalizedCandidate {
	firstName, lastName := splitName(i.User.Name)
	if firstName == "" {
		firstName = lalafoCompany
	}

	salaryMin, salaryMax := extractSalary(i.Description)

	candidate := sourcing.NormalizedCandidate{
		ExternalID:      fmt.Sprintf("lalafo_%d", i.ID),
		FirstName:       firstName,
		LastName:        lastName,
		Phone:           normalizePhone(i.User.Phone, "KG"),
		Location:        i.Location.Name,
		CurrentPosition: extractPosition(i.Title),
		CurrentCompany:  lalafoCompany,
		ExperienceYears: extractExperience(i.Description),
		Skills:          extractSkills(i.Description + " " + i.Title),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		Summary:         truncate(i.Description, lalafoSummaryMax),
		RawData: map[string]any{
			"lalafo_id":  i.ID,
			"user_id":    i.User.ID,
			"created_at": i.CreatedAt,
			"category":   i.Category.Name,
		},
	}
	if i.User.ID != 0 {
		candidate.ProfileURL = fmt.Sprintf("https://lalafo.kg/profile/%d", i.User.ID)
	}
	return candidate
}

/** Text extraction */

var knownSkills = []string{
	"Python", "JavaScript", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Rust",
	"React", "Vue.js", "Angular", "Node.js", "Django", "Flask", "Laravel",
	"MySQL", "PostgreSQL", "MongoDB", "Redis", "SQLite",
	"Docker", "Kubernetes", "AWS", "Azure", "Google Cloud",
	"Git", "Linux", "Windows", "macOS",
	"HTML", "CSS", "SASS", "LESS", "Bootstrap", "Tailwind",
	"TypeScript", "Webpack", "Gulp", "NPM", "Yarn",
	"REST API", "GraphQL", "Microservices", "CI/CD",
	"Photoshop", "Figma", "Sketch", "Adobe XD",
	"Android", "iOS", "React Native", "Flutter", "Xamarin",
	"Machine Learning", "AI", "Data Science", "Analytics",
}

// extractSkills returns the known skills mentioned in text, in catalogue order
func extractSkills(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, skill := range knownSkills {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}

var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*года?\s*опыта`),
	regexp.MustCompile(`(\d+)\s*years?\s*experience`),
	regexp.MustCompile(`опыт\s*работы\s*(\d+)\s*лет?`),
	regexp.MustCompile(`стаж\s*(\d+)\s*лет?`),
	regexp.MustCompile(`(\d+)\+?\s*лет?\s*в\s*разработке`),
	regexp.MustCompile(`(\d+)\+?\s*years?\s*in\s*development`),
}

func extractExperience(text string) *int {
	lower := strings.ToLower(text)
	for _, pattern := range experiencePatterns {
		if match := pattern.FindStringSubmatch(lower); match != nil {
			if years, err := strconv.Atoi(match[1]); err == nil {
				return intPtr(years)
			}
		}
	}
	return nil
}

var (
	salaryRangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*сом`),
		regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*₽`),
		regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*руб`),
		regexp.MustCompile(`от\s*(\d+)\s*до\s*(\d+)\s*сом`),
		regexp.MustCompile(`от\s*(\d+)\s*до\s*(\d+)\s*₽`),
	}
	salaryFixedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*сом`),
		regexp.MustCompile(`(\d+)\s*₽`),
	}
)

// extractSalary reads a salary range, or a single amount used as both bounds
func extractSalary(text string) (*int, *int) {
	lower := strings.ToLower(text)

	for _, pattern := range salaryRangePatterns {
		if match := pattern.FindStringSubmatch(lower); match != nil {
			low, errLow := strconv.Atoi(match[1])
			high, errHigh := strconv.Atoi(match[2])
			if errLow == nil && errHigh == nil {
				return intPtr(low), intPtr(high)
			}
		}
	}
	for _, pattern := range salaryFixedPatterns {
		if match := pattern.FindStringSubmatch(lower); match != nil {
			if amount, err := strconv.Atoi(match[1]); err == nil {
				return intPtr(amount), intPtr(amount)
			}
		}
	}
	return nil, nil
}

var knownPositions = []string{
	"Senior Developer", "Middle Developer", "Junior Developer",
	"Frontend Developer", "Backend Developer", "Full Stack Developer",
	"Mobile Developer", "DevOps Engineer", "QA Engineer",
	"UI/UX Designer", "Product Manager", "Team Lead",
	"Senior Python Developer", "React Developer", "Node.js Developer",
	"Android Developer", "iOS Developer", "Data Scientist",
}

// extractPosition maps a listing title onto a known role
func extractPosition(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Разработчик"
	}

	lower := strings.ToLower(title)
	for _, position := range knownPositions {
		if strings.Contains(lower, strings.ToLower(position)) {
			return position
		}
	}

	switch {
	case strings.Contains(lower, "developer") || strings.Contains(lower, "разработчик"):
		return "Разработчик"
	case strings.Contains(lower, "designer") || strings.Contains(lower, "дизайнер"):
		return "Дизайнер"
	case strings.Contains(lower, "manager") || strings.Contains(lower, "менеджер"):
		return "Менеджер"
	default:
		return truncate(title, 50)
	}
}

// truncate cuts s to max runes and marks the cut with an ellipsis
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
