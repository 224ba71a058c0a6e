package sdk

import (
	"encoding/json"

	"github.com/ethanbaker/api/pkg/api_types"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status    api_types.StatusType `json:"status"`               // Status message
	Code      int                  `json:"code"`                 // Status code
	Message   string               `json:"message"`              // Human-readable message
	Data      T                    `json:"data,omitempty"`       // Optional data field for successful responses
	Error     any                  `json:"error,omitempty"`      // Optional errors field for error responses
	ErrorCode string               `json:"error_code,omitempty"` // Domain error code, when known
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccess(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
	}
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse builds an error envelope. Errors are flattened to their message.
func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	if e, ok := err.(error); ok {
		err = e.Error()
	}

	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Integrations */

// CreateIntegrationRequest is the body of POST /api/integrations
type CreateIntegrationRequest struct {
	Platform sourcing.Platform `json:"platform" binding:"required"`
	sourcing.IntegrationConfig
	Credentials sourcing.Credentials `json:"credentials"`
}

// UpdateIntegrationRequest is the body of PUT /api/integrations/:id
type UpdateIntegrationRequest = sourcing.IntegrationUpdate

// IntegrationResponse is an integration as returned by the API. Credentials never leave the server.
type IntegrationResponse struct {
	*sourcing.Integration
	HasCredentials bool `json:"has_credentials"`
}

/** Search */

// SearchRequest is the body of POST /api/integrations/search
type SearchRequest struct {
	Platform sourcing.Platform       `json:"platform" binding:"required"`
	Criteria sourcing.SearchCriteria `json:"criteria"`
	Limit    int                     `json:"limit" binding:"omitempty,min=1,max=200"`
}

// SearchResponse holds the stored candidates of one search
type SearchResponse struct {
	Platform   sourcing.Platform             `json:"platform"`
	Count      int                           `json:"count"`
	Candidates []*sourcing.ExternalCandidate `json:"candidates"`
}

/** Candidates */

// CandidateQuery narrows candidate listings and exports
type CandidateQuery struct {
	Platform      sourcing.Platform `form:"platform"`
	IntegrationID *uint             `form:"integration_id"`
	Imported      *bool             `form:"imported"`
	Limit         int               `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset        int               `form:"offset" binding:"omitempty,min=0"`
}

// Filter converts the query to a store filter
func (q CandidateQuery) Filter() sourcing.CandidateFilter {
	return sourcing.CandidateFilter{
		Platform:      q.Platform,
		IntegrationID: q.IntegrationID,
		Imported:      q.Imported,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
}

// CandidateListResponse is one page of candidates
type CandidateListResponse struct {
	Count      int                           `json:"count"`
	Candidates []*sourcing.ExternalCandidate `json:"candidates"`
}

// ImportRequest is the body of POST /api/integrations/candidates/:id/import
type ImportRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

/** Observability */

// LogListResponse holds audit entries, newest first
type LogListResponse struct {
	Count int                        `json:"count"`
	Logs  []*sourcing.IntegrationLog `json:"logs"`
}
