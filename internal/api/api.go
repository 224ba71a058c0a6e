package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/ethanbaker/sourcing/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	health_module "github.com/ethanbaker/sourcing/internal/api/modules/health"
	integrations_module "github.com/ethanbaker/sourcing/internal/api/modules/integrations"
)

// NewEngine builds the gin engine with every module registered
func NewEngine(cfg *utils.Config, m *metrics.Metrics) *gin.Engine {
	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)
	engine.Use(m.Middleware())

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/metrics", gin.WrapH(m.Handler()))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)
	integrations_module.RegisterRoutes(baseGroup, cfg)

	return engine
}

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")
	m := metrics.New(prometheus.NewRegistry())

	if err := integrations_module.Init(cfg, m); err != nil {
		log.Fatal("[API-MAIN]: Failed to initialize integrations: ", err)
	}
	defer integrations_module.Stop()

	server := &http.Server{
		Addr:    ":" + port,
		Handler: NewEngine(cfg, m),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[API-MAIN]: Failed to shut down server: %v", err)
		}
	}()

	// Then after performing initial setup, start the server
	log.Printf("[API-MAIN]: Listening on :%s", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}
