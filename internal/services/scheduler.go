package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"finquest/internal/log"
)

// Syncer runs one sync.
type Syncer interface {
	Run(ctx context.Context, jobID string) (SyncResult, error)
}

// SchedulerConfig holds configuration for the periodic sync
type SchedulerConfig struct {
	// Interval between syncs; zero disables the scheduler.
	Interval time.Duration

	// RunOnStart triggers a sync as soon as the scheduler starts.
	RunOnStart bool
}

// Scheduler runs a sync every Interval until stopped.
type Scheduler struct {
	syncer Syncer
	config SchedulerConfig
	logger *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(syncer Syncer, config SchedulerConfig, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Discard()
	}
	return &Scheduler{
		syncer: syncer,
		config: config,
		logger: logger.WithComponent(log.ComponentScheduler),
	}
}

// Enabled reports whether an interval is configured.
func (s *Scheduler) Enabled() bool {
	return s.config.Interval > 0
}

// Start begins the loop. Returns an error if already running or disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		return fmt.Errorf("scheduler is disabled")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Sync scheduler started", "interval", s.config.Interval.String())
	return nil
}

// Stop signals the loop and waits for the current sync to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.tick(ctx)
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	jobID := uuid.NewString()
	if _, err := s.syncer.Run(ctx, jobID); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled sync failed",
			log.FieldJobID, jobID,
			log.FieldError, err.Error())
	}
}
