package sourcing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethanbaker/sourcing/pkg/logger"
	"github.com/ethanbaker/sourcing/pkg/metrics"
	"github.com/robfig/cron/v3"
)

// Scheduler periodically syncs every due integration
type Scheduler struct {
	service *Service
	logger  logger.Logger
	metrics *metrics.Metrics

	// Concurrency
	mutex   sync.Mutex
	running map[uint]bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	// Scheduling
	cron *cron.Cron
	opts SchedulerOptions
}

// SchedulerOptions contains configuration options for the Scheduler
type SchedulerOptions struct {
	Spec        string        `json:"spec" yaml:"spec"`                 // Cron spec of the tick, "@every 5m" by default
	MaxParallel int           `json:"max_parallel" yaml:"max_parallel"` // Concurrent runs per tick
	RunTimeout  time.Duration `json:"run_timeout" yaml:"run_timeout"`   // Upper bound of one run

	Logger  logger.Logger    `json:"-" yaml:"-"`
	Metrics *metrics.Metrics `json:"-" yaml:"-"`
}

// NewScheduler creates a scheduler. Call Start to begin ticking.
func NewScheduler(service *Service, opts *SchedulerOptions) (*Scheduler, error) {
	if service == nil {
		return nil, fmt.Errorf("a valid service must be provided")
	}

	var o SchedulerOptions
	if opts != nil {
		o = *opts
	}
	if o.Spec == "" {
		o.Spec = "@every 5m"
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = 4
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 10 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		service: service,
		logger:  logger.Component(o.Logger, "scheduler"),
		metrics: o.Metrics,
		running: make(map[uint]bool),
		ctx:     ctx,
		cancel:  cancel,
		cron:    cron.New(),
		opts:    o,
	}

	if _, err := s.cron.AddFunc(o.Spec, func() { s.Tick(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid sync cron spec '%s': %w", o.Spec, err)
	}

	return s, nil
}

// Start begins the periodic ticks
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.opts.Spec)
}

// Stop halts ticking, cancels running syncs and waits for them to record their outcome
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

// Tick syncs every due integration and waits for the runs to finish.
// Integrations still running from an earlier tick are skipped.
// It returns the number of runs started.
func (s *Scheduler) Tick(ctx context.Context) int {
	due, err := s.service.DueIntegrations(ctx)
	if err != nil {
		s.logger.Error("failed to list due integrations", "error", err)
		return 0
	}
	s.metrics.SetDueBacklog(len(due))

	slots := make(chan struct{}, s.opts.MaxParallel)
	var tick sync.WaitGroup
	started := 0

	for _, integration := range due {
		if !s.claim(integration.ID) {
			continue
		}
		started++

		tick.Add(1)
		s.wg.Add(1)
		go func(id uint, platform Platform) {
			defer s.wg.Done()
			defer tick.Done()
			defer s.release(id)

			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
			case <-ctx.Done():
				return
			}

			runCtx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
			defer cancel()

			// Failures are already recorded on the integration by RunSync
			if _, err := s.service.RunSync(runCtx, id); err != nil {
				s.logger.Warn("scheduled sync failed", "integration_id", id, "platform", platform, "error", err)
			}
		}(integration.ID, integration.Platform)
	}

	tick.Wait()
	return started
}

// claim marks an integration as running, returning false when it already is
func (s *Scheduler) claim(id uint) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running[id] {
		return false
	}
	s.running[id] = true
	return true
}

func (s *Scheduler) release(id uint) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.running, id)
}
