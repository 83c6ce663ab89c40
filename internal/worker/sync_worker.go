package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finquest/internal/amqp"
	"finquest/internal/log"
	"finquest/internal/services"
)

// Consumer delivers queued sync requests to a handler until ctx ends.
type Consumer interface {
	ConsumeSyncRequests(ctx context.Context, handler amqp.Handler) error
}

// Syncer runs one sync.
type Syncer interface {
	Run(ctx context.Context, jobID string) (services.SyncResult, error)
}

// SyncTracker reports when the local snapshot was last replaced.
type SyncTracker interface {
	LastSync(ctx context.Context) (at time.Time, count int, ok bool, err error)
}

// SyncWorker consumes sync requests and drives the periodic scheduler.
type SyncWorker struct {
	consumer  Consumer
	syncer    Syncer
	scheduler *services.Scheduler
	tracker   SyncTracker
	maxAge    time.Duration
	now       func() time.Time
	logger    *log.Logger
}

// Config wires a SyncWorker. Consumer, Scheduler and Tracker are optional.
type Config struct {
	Consumer  Consumer
	Syncer    Syncer
	Scheduler *services.Scheduler
	Tracker   SyncTracker

	// MaxSnapshotAge triggers a sync at startup when the snapshot is older.
	// Zero only syncs when no snapshot exists.
	MaxSnapshotAge time.Duration
}

func NewSyncWorker(cfg Config, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		consumer:  cfg.Consumer,
		syncer:    cfg.Syncer,
		scheduler: cfg.Scheduler,
		tracker:   cfg.Tracker,
		maxAge:    cfg.MaxSnapshotAge,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage processes a single sync request from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncRequest) error {
	jobID := msg.JobID.String()
	w.logger.InfoContext(ctx, "Processing sync request",
		log.FieldJobID, jobID,
		log.FieldSource, msg.Source,
		"queued_for", w.now().Sub(msg.RequestedAt).Round(time.Millisecond).String())

	if _, err := w.syncer.Run(ctx, jobID); err != nil {
		return fmt.Errorf("sync %s: %w", jobID, err)
	}
	return nil
}

// StartupSyncCheck syncs once when the snapshot is missing or stale, to
// recover from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.tracker == nil {
		return nil
	}
	at, count, ok, err := w.tracker.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("read last sync: %w", err)
	}
	if ok && (w.maxAge <= 0 || w.now().Sub(at) < w.maxAge) {
		w.logger.InfoContext(ctx, "Snapshot is fresh, skipping startup sync",
			"synced_at", at.Format(time.RFC3339),
			log.FieldTransactionCount, count)
		return nil
	}

	jobID := uuid.NewString()
	w.logger.InfoContext(ctx, "Running startup sync", log.FieldJobID, jobID, "had_snapshot", ok)
	if _, err := w.syncer.Run(ctx, jobID); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

// Run performs the startup check, then consumes and schedules until ctx is
// cancelled. A failed startup sync is logged, not fatal.
func (w *SyncWorker) Run(ctx context.Context) error {
	if w.consumer == nil && (w.scheduler == nil || !w.scheduler.Enabled()) {
		return errors.New("worker has neither a queue consumer nor a sync interval")
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup sync failed", log.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeSyncRequests(gctx, w.HandleSyncMessage)
		})
	}
	if w.scheduler != nil && w.scheduler.Enabled() {
		g.Go(func() error {
			return w.scheduler.Run(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
