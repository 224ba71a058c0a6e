package sourcing

import (
	"context"
	"fmt"
	"time"

	"github.com/ethanbaker/sourcing/pkg/logger"
	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSearchLimit       = 50
	MaxSearchLimit           = 200
	DefaultSyncLimit         = 100
	DefaultSyncIntervalHours = 24
	DefaultLogLimit          = 50
)

// Service is the sourcing engine. It owns the integration registry and runs
// searches, syncs and imports against the injected store and adapters.
type Service struct {
	store    StoreInterface
	vault    Vault
	accounts AccountCreator
	adapters *AdapterRegistry
	locker   Locker

	logger   logger.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time

	syncLimit          int
	passwordCost       int
	bookkeepingTimeout time.Duration
}

// ServiceOptions contains the collaborators and settings of a Service
type ServiceOptions struct {
	Store    StoreInterface
	Vault    Vault
	Accounts AccountCreator
	Adapters *AdapterRegistry
	Locker   Locker // Defaults to a LocalLocker

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Clock   func() time.Time

	SyncLimit    int // Results requested per sync run
	PasswordCost int // bcrypt cost for temporary credentials
}

// NewService creates a new sourcing service
func NewService(opts *ServiceOptions) (*Service, error) {
	if opts == nil || opts.Store == nil {
		return nil, fmt.Errorf("a valid store must be provided")
	}
	if opts.Vault == nil {
		return nil, fmt.Errorf("a credential vault must be provided")
	}
	if opts.Accounts == nil {
		return nil, fmt.Errorf("an account creator must be provided")
	}

	s := &Service{
		store:              opts.Store,
		vault:              opts.Vault,
		accounts:           opts.Accounts,
		adapters:           opts.Adapters,
		locker:             opts.Locker,
		logger:             logger.Component(opts.Logger, "sourcing"),
		metrics:            opts.Metrics,
		validate:           validator.New(validator.WithRequiredStructEnabled()),
		now:                opts.Clock,
		syncLimit:          opts.SyncLimit,
		passwordCost:       opts.PasswordCost,
		bookkeepingTimeout: 10 * time.Second,
	}

	if s.adapters == nil {
		s.adapters = NewAdapterRegistry()
	}
	if s.locker == nil {
		s.locker = NewLocalLocker()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.syncLimit <= 0 {
		s.syncLimit = DefaultSyncLimit
	}
	if s.passwordCost == 0 {
		s.passwordCost = bcrypt.DefaultCost
	}

	return s, nil
}

// Adapters returns the adapter registry used by the service
func (s *Service) Adapters() *AdapterRegistry {
	return s.adapters
}

// detached returns a context that survives cancellation of ctx, so bookkeeping
// after an abandoned run still lands
func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.bookkeepingTimeout)
}

// clampLimit applies the default and maximum page size
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
