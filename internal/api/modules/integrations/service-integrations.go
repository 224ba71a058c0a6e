package integrations

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ethanbaker/sourcing/internal/locks"
	"github.com/ethanbaker/sourcing/internal/platforms"
	accounts_store "github.com/ethanbaker/sourcing/internal/stores/accounts"
	"github.com/ethanbaker/sourcing/internal/stores/database"
	integrations_store "github.com/ethanbaker/sourcing/internal/stores/integrations"
	"github.com/ethanbaker/sourcing/pkg/logger"
	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/ethanbaker/sourcing/pkg/utils"
	"github.com/ethanbaker/sourcing/pkg/vault"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntegrationService owns the sourcing engine and its background scheduler
type IntegrationService struct {
	engine    *sourcing.Service
	scheduler *sourcing.Scheduler
	db        *gorm.DB
	logger    logger.Logger
}

var integrationService *IntegrationService

/** ---- INIT ---- */

// Init wires the stores, vault, lock and adapters described by cfg and starts the scheduler
func Init(cfg *utils.Config, m *metrics.Metrics) error {
	l := logger.New(cfg.GetWithDefault("LOG_LEVEL", "info"))

	// Stores
	db, err := database.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	secret := cfg.Get("VAULT_SECRET")
	if db == nil {
		log.Printf("[INTEGRATIONS]: Warning, no database configured, data is kept in memory and lost on exit")
		if db, err = database.OpenSQLiteMemory("sourcing-" + uuid.NewString()); err != nil {
			return fmt.Errorf("failed to open in-memory database: %w", err)
		}

		if secret == "" {
			log.Printf("[INTEGRATIONS]: Warning, VAULT_SECRET not set, credentials are sealed with a per-process key")
			secret = uuid.NewString()
		}
	} else if secret == "" {
		return fmt.Errorf("VAULT_SECRET not set in environment")
	}

	store, err := integrations_store.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create integration store: %w", err)
	}
	accounts, err := accounts_store.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create account store: %w", err)
	}

	box, err := vault.New(secret)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	// Per-integration lock
	var locker sourcing.Locker
	if redisURL := cfg.Get("REDIS_URL"); redisURL != "" {
		client, err := locks.NewClient(redisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = locks.NewRedisLocker(client, cfg.GetDurationWithDefault("LOCK_TTL", locks.DefaultTTL))
	}

	// Platform adapters
	platformConfig, err := platforms.LoadConfig(cfg.Get("PLATFORMS_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load platform config: %w", err)
	}
	adapters := platforms.NewRegistry(platformConfig, http.DefaultClient, &platforms.Options{Logger: l, Metrics: m})

	engine, err := sourcing.NewService(&sourcing.ServiceOptions{
		Store:     store,
		Vault:     box,
		Accounts:  accounts,
		Adapters:  adapters,
		Locker:    locker,
		Logger:    l,
		Metrics:   m,
		SyncLimit: cfg.GetIntWithDefault("SYNC_RESULT_LIMIT", sourcing.DefaultSyncLimit),
	})
	if err != nil {
		return fmt.Errorf("failed to create sourcing service: %w", err)
	}

	scheduler, err := sourcing.NewScheduler(engine, &sourcing.SchedulerOptions{
		Spec:        cfg.GetWithDefault("SYNC_CRON_SPEC", "@every 5m"),
		MaxParallel: cfg.GetIntWithDefault("SYNC_MAX_PARALLEL", 4),
		RunTimeout:  cfg.GetDurationWithDefault("SYNC_RUN_TIMEOUT", 0),
		Logger:      l,
		Metrics:     m,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	setService(&IntegrationService{
		engine:    engine,
		scheduler: scheduler,
		db:        db,
		logger:    logger.Component(l, "api"),
	})

	if cfg.GetBoolWithDefault("SYNC_ENABLED", true) {
		scheduler.Start()
	}

	log.Printf("[INTEGRATIONS]: Initialized with %d platform adapters", len(adapters.Platforms()))
	return nil
}

// Stop halts the scheduler and closes the database
func Stop() {
	s := integrationService
	if s == nil {
		return
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			log.Printf("[INTEGRATIONS]: Failed to close database: %v", err)
		}
	}
}

// setService swaps the service used by the handlers
func setService(s *IntegrationService) {
	integrationService = s
}

// GetService returns the running integration service
func GetService() *IntegrationService {
	if integrationService == nil {
		log.Fatal("[INTEGRATIONS]: Service not initialized, call Init first")
	}
	return integrationService
}

// Engine returns the sourcing engine behind the service
func (s *IntegrationService) Engine() *sourcing.Service {
	return s.engine
}
