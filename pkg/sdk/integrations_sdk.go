package sdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

/** Integrations */

// CreateIntegration registers a new platform integration
func (c *Client) CreateIntegration(ctx context.Context, req *CreateIntegrationRequest) (*IntegrationResponse, error) {
	var out ApiResponse[IntegrationResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/api/integrations", req, &out); err != nil {
		return nil, err
	}

	if out.Data.Integration == nil || out.Data.ID == 0 {
		return nil, fmt.Errorf("no id returned")
	}

	return &out.Data, nil
}

// ListIntegrations returns every integration
func (c *Client) ListIntegrations(ctx context.Context) ([]IntegrationResponse, error) {
	var out ApiResponse[[]IntegrationResponse]
	if err := c.doJSON(ctx, http.MethodGet, "/api/integrations", nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// GetIntegration gets an integration by id
func (c *Client) GetIntegration(ctx context.Context, id uint) (*IntegrationResponse, error) {
	var out ApiResponse[IntegrationResponse]
	if err := c.doJSON(ctx, http.MethodGet, integrationPath(id, ""), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// UpdateIntegration applies a partial update
func (c *Client) UpdateIntegration(ctx context.Context, id uint, req *UpdateIntegrationRequest) (*IntegrationResponse, error) {
	var out ApiResponse[IntegrationResponse]
	if err := c.doJSON(ctx, http.MethodPut, integrationPath(id, ""), req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// DeleteIntegration removes an integration and its candidates
func (c *Client) DeleteIntegration(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, integrationPath(id, ""), nil, nil)
}

// SupportedPlatforms lists every known platform
func (c *Client) SupportedPlatforms(ctx context.Context) ([]sourcing.PlatformInfo, error) {
	var out ApiResponse[[]sourcing.PlatformInfo]
	if err := c.doJSON(ctx, http.MethodGet, "/api/integrations/platforms/supported", nil, &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

/** Search and sync */

// Search runs an on-demand search against the active integration of a platform
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var out ApiResponse[SearchResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/api/integrations/search", req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Sync runs a sync for an integration and waits for it to finish
func (c *Client) Sync(ctx context.Context, id uint) (*sourcing.SyncResult, error) {
	var out ApiResponse[sourcing.SyncResult]
	if err := c.doJSON(ctx, http.MethodPost, integrationPath(id, "/sync"), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// SyncStatus reports the sync health of an integration
func (c *Client) SyncStatus(ctx context.Context, id uint) (*sourcing.SyncStatus, error) {
	var out ApiResponse[sourcing.SyncStatus]
	if err := c.doJSON(ctx, http.MethodGet, integrationPath(id, "/sync-status"), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Logs returns the newest audit entries of an integration
func (c *Client) Logs(ctx context.Context, id uint, limit int) ([]*sourcing.IntegrationLog, error) {
	path := integrationPath(id, "/logs")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out ApiResponse[LogListResponse]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return out.Data.Logs, nil
}

// Stats returns the overview across every integration
func (c *Client) Stats(ctx context.Context) (*sourcing.Stats, error) {
	var out ApiResponse[sourcing.Stats]
	if err := c.doJSON(ctx, http.MethodGet, "/api/integrations/stats/overview", nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

/** Candidates */

// ListCandidates returns one page of stored candidates
func (c *Client) ListCandidates(ctx context.Context, query CandidateQuery) ([]*sourcing.ExternalCandidate, error) {
	var out ApiResponse[CandidateListResponse]
	if err := c.doJSON(ctx, http.MethodGet, "/api/integrations/candidates"+query.encode(), nil, &out); err != nil {
		return nil, err
	}

	return out.Data.Candidates, nil
}

// GetCandidate gets a stored candidate by id
func (c *Client) GetCandidate(ctx context.Context, id uint) (*sourcing.ExternalCandidate, error) {
	var out ApiResponse[sourcing.ExternalCandidate]
	if err := c.doJSON(ctx, http.MethodGet, candidatePath(id, ""), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// ImportCandidate promotes a candidate into an internal account. The client
// must carry a user id.
func (c *Client) ImportCandidate(ctx context.Context, id uint, req *ImportRequest) (*sourcing.ImportResult, error) {
	if req == nil {
		req = &ImportRequest{}
	}

	var out ApiResponse[sourcing.ImportResult]
	if err := c.doJSON(ctx, http.MethodPost, candidatePath(id, "/import"), req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// ExportCandidates downloads the matching candidates as an XLSX workbook
func (c *Client) ExportCandidates(ctx context.Context, query CandidateQuery) ([]byte, error) {
	path := "/api/integrations/candidates/export" + query.encode()

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

/** Helpers */

func integrationPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/integrations/%d%s", id, suffix)
}

func candidatePath(id uint, suffix string) string {
	return fmt.Sprintf("/api/integrations/candidates/%d%s", id, suffix)
}

// encode renders the query string, including the leading '?'
func (q CandidateQuery) encode() string {
	values := url.Values{}
	if q.Platform != "" {
		values.Set("platform", string(q.Platform))
	}
	if q.IntegrationID != nil {
		values.Set("integration_id", strconv.FormatUint(uint64(*q.IntegrationID), 10))
	}
	if q.Imported != nil {
		values.Set("imported", strconv.FormatBool(*q.Imported))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}

	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
