package integrations

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethanbaker/sourcing/pkg/export"
	"github.com/ethanbaker/sourcing/pkg/sdk"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/gin-gonic/gin"
)

/** Integrations */

// CreateIntegration handles POST requests to register a platform integration
func CreateIntegration(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	// Parse request body
	var req sdk.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	integration, err := GetService().Engine().CreateIntegration(c.Request.Context(), req.Platform, req.IntegrationConfig, req.Credentials, userID)
	if err != nil {
		respondError(c, "Failed to create integration", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Integration created successfully", toResponse(integration)).AsGinResponse())
}

// ListIntegrations handles GET requests for every integration
func ListIntegrations(c *gin.Context) {
	integrations, err := GetService().Engine().ListIntegrations(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to list integrations", err)
		return
	}

	out := make([]sdk.IntegrationResponse, 0, len(integrations))
	for _, integration := range integrations {
		out = append(out, toResponse(integration))
	}

	c.JSON(sdk.NewSuccessResponse("Integrations retrieved successfully", out).AsGinResponse())
}

// GetIntegration handles GET requests for one integration
func GetIntegration(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	integration, err := GetService().Engine().GetIntegration(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Integration not found", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Integration retrieved successfully", toResponse(integration)).AsGinResponse())
}

// UpdateIntegration handles PUT requests with a partial update
func UpdateIntegration(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req sdk.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	integration, err := GetService().Engine().UpdateIntegration(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, "Failed to update integration", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Integration updated successfully", toResponse(integration)).AsGinResponse())
}

// DeleteIntegration handles DELETE requests for an integration
func DeleteIntegration(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := GetService().Engine().DeleteIntegration(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete integration", err)
		return
	}

	c.JSON(sdk.NewSuccess("Integration deleted successfully").AsGinResponse())
}

// ListSupportedPlatforms handles GET requests for the platform catalogue
func ListSupportedPlatforms(c *gin.Context) {
	c.JSON(sdk.NewSuccessResponse("Platforms retrieved successfully", GetService().Engine().SupportedPlatforms()).AsGinResponse())
}

/** Search and sync */

// Search handles POST requests for an on-demand search
func Search(c *gin.Context) {
	var req sdk.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	candidates, err := GetService().Engine().Search(c.Request.Context(), req.Platform, req.Criteria, req.Limit)
	if err != nil {
		respondError(c, "Search failed", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Search completed successfully", sdk.SearchResponse{
		Platform:   req.Platform,
		Count:      len(candidates),
		Candidates: candidates,
	}).AsGinResponse())
}

// SyncIntegration handles POST requests that run a sync and wait for it
func SyncIntegration(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	result, err := GetService().Engine().RunSync(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Sync failed", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Sync completed successfully", result).AsGinResponse())
}

// SyncStatus handles GET requests for the sync health of an integration
func SyncStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	status, err := GetService().Engine().SyncStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to get sync status", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Sync status retrieved successfully", status).AsGinResponse())
}

// ListLogs handles GET requests for the audit log of an integration
func ListLogs(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid limit", c.Query("limit")).AsGinResponse())
		return
	}

	logs, err := GetService().Engine().Logs(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, "Failed to get logs", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Logs retrieved successfully", sdk.LogListResponse{Count: len(logs), Logs: logs}).AsGinResponse())
}

// GetStats handles GET requests for the overview across integrations
func GetStats(c *gin.Context) {
	stats, err := GetService().Engine().Stats(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to get stats", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Stats retrieved successfully", stats).AsGinResponse())
}

/** Candidates */

// ListCandidates handles GET requests for stored candidates
func ListCandidates(c *gin.Context) {
	var query sdk.CandidateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid query", err).AsGinResponse())
		return
	}

	candidates, err := GetService().Engine().ListCandidates(c.Request.Context(), query.Filter())
	if err != nil {
		respondError(c, "Failed to list candidates", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Candidates retrieved successfully", sdk.CandidateListResponse{
		Count:      len(candidates),
		Candidates: candidates,
	}).AsGinResponse())
}

// ExportCandidates handles GET requests for an XLSX export of stored candidates
func ExportCandidates(c *gin.Context) {
	var query sdk.CandidateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid query", err).AsGinResponse())
		return
	}

	candidates, err := GetService().Engine().ListCandidates(c.Request.Context(), query.Filter())
	if err != nil {
		respondError(c, "Failed to list candidates", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Candidates(&buf, candidates); err != nil {
		respondError(c, "Failed to export candidates", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="candidates.xlsx"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// GetCandidate handles GET requests for one stored candidate
func GetCandidate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	candidate, err := GetService().Engine().GetCandidate(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Candidate not found", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Candidate retrieved successfully", candidate).AsGinResponse())
}

// ImportCandidate handles POST requests that promote a candidate into an account
func ImportCandidate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, ok := paramID(c)
	if !ok {
		return
	}

	// The body is optional
	var req sdk.ImportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
			return
		}
	}

	result, err := GetService().Engine().ImportCandidate(c.Request.Context(), sourcing.ImportRequest{
		ExternalCandidateID: id,
		ImportedBy:          userID,
		Notes:               req.Notes,
	})
	if err != nil {
		respondError(c, "Failed to import candidate", err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Candidate imported successfully", result).AsGinResponse())
}

/** Helpers */

// respondError writes an error envelope whose status follows the domain error code
func respondError(c *gin.Context, message string, err error) {
	code := sourcing.ErrorCode(err)

	status := http.StatusInternalServerError
	switch code {
	case sourcing.ErrCodeConflict:
		status = http.StatusConflict
	case sourcing.ErrCodeNotFound:
		status = http.StatusNotFound
	case sourcing.ErrCodeValidation, sourcing.ErrCodeUnsupportedPlatform:
		status = http.StatusBadRequest
	case sourcing.ErrCodeTransientRemote:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		GetService().logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	res := sdk.NewErrorResponse(status, message, err)
	res.ErrorCode = code
	c.JSON(res.AsGinResponse())
}

// paramID parses the :id path parameter, answering 400 when it is not a positive integer
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid id", fmt.Sprintf("'%s' is not a valid id", c.Param("id"))).AsGinResponse())
		return 0, false
	}
	return uint(id), true
}

// requireUserID reads the acting user from the X-User-ID header
func requireUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Missing or invalid X-User-ID header", nil).AsGinResponse())
		return 0, false
	}
	return uint(id), true
}

func toResponse(integration *sourcing.Integration) sdk.IntegrationResponse {
	return sdk.IntegrationResponse{
		Integration:    integration,
		HasCredentials: integration.HasCredentials(),
	}
}
