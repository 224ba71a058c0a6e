package integrations

import (
	"fmt"
	"log"

	"github.com/ethanbaker/api/pkg/api_key"
	"github.com/ethanbaker/sourcing/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Register routes for the integrations module
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config) {
	// Make api key validator
	validator, err := makeApiKeyValidator(cfg)
	if err != nil {
		log.Fatalf("failed to create API key validator: %v", err)
	}

	// Create base group for integration routes
	group := g.Group("/integrations")
	group.Handlers = append(group.Handlers, api_key.APIKeyHeaderHandler(validator))

	registerHandlers(group)
}

// registerHandlers attaches the handlers without the API key guard
func registerHandlers(group *gin.RouterGroup) {
	// Integration management routes
	group.POST("", CreateIntegration)         // Register a platform integration
	group.GET("", ListIntegrations)           // List every integration
	group.GET("/:id", GetIntegration)         // Get an integration by id
	group.PUT("/:id", UpdateIntegration)      // Partially update an integration
	group.DELETE("/:id", DeleteIntegration)   // Delete an integration and its candidates
	group.POST("/:id/sync", SyncIntegration)  // Run a sync and wait for it
	group.GET("/:id/sync-status", SyncStatus) // Sync health of an integration
	group.GET("/:id/logs", ListLogs)          // Newest audit entries

	// Search and candidate routes
	group.POST("/search", Search)                             // On-demand search by platform
	group.GET("/candidates", ListCandidates)                  // List stored candidates
	group.GET("/candidates/export", ExportCandidates)         // XLSX export of stored candidates
	group.GET("/candidates/:id", GetCandidate)                // Get a stored candidate
	group.POST("/candidates/:id/import", ImportCandidate)     // Promote a candidate into an account
	group.GET("/stats/overview", GetStats)                    // Overview across integrations
	group.GET("/platforms/supported", ListSupportedPlatforms) // Known platforms
}

// makeApiKeyValidator checks if the provided API key is valid
func makeApiKeyValidator(cfg *utils.Config) (func(key string) bool, error) {
	// Get api key from config
	apiKey := cfg.Get("API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY not set in environment")
	}

	return func(key string) bool {
		return apiKey == key
	}, nil
}
