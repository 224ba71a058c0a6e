package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/oauth2"
)

const userAgent = "sourcing/1.0"

// StatusError is a non-2xx answer from a platform
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// bearerClient builds an HTTP client that authorizes every request with the
// integration's token. With an OAuth client and a refresh token the access token
// is refreshed when it expires.
func bearerClient(ctx context.Context, base *http.Client, creds sourcing.Credentials, oauth *oauth2.Config) (*http.Client, error) {
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return nil, ErrNotConfigured
	}
	if base == nil {
		base = http.DefaultClient
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}

	var source oauth2.TokenSource
	if oauth != nil && oauth.ClientID != "" && creds.RefreshToken != "" {
		source = oauth.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, base), token)
	} else {
		if creds.AccessToken == "" {
			return nil, ErrNotConfigured
		}
		source = oauth2.StaticTokenSource(token)
	}

	return &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base.Transport},
		Timeout:   base.Timeout,
	}, nil
}

// getJSON performs a GET and decodes a JSON body into out
func getJSON(ctx context.Context, client *http.Client, endpoint string, query url.Values, headers map[string]string, out any) error {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalizePhone formats a phone number as E.164 when it parses, keeping the
// trimmed input otherwise
func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	number, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return raw
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// splitName splits a display name into first name and the rest
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func intPtr(v int) *int {
	return &v
}
