package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"finquest/internal/amqp"
	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

// Publisher hands a sync request to the worker queue.
type Publisher interface {
	PublishSyncRequest(ctx context.Context, req *amqp.SyncRequest) error
}

// SyncResult describes a finished or queued sync.
type SyncResult struct {
	JobID        string
	Queued       bool
	Transactions int
	Dropped      int
}

// SyncService pulls the live transactions, normalizes them and replaces the
// local snapshot. With a publisher it defers the work to a worker.
type SyncService struct {
	live       sources.TransactionSource
	snapshot   sources.SnapshotWriter
	taxonomy   core.Taxonomy
	publisher  Publisher
	invalidate []func()
	logger     *log.Logger
	structured *log.StructuredLogger
}

// NewSyncService creates a sync service. live may be nil, in which case
// every sync fails with sources.ErrNotConfigured.
func NewSyncService(live sources.TransactionSource, snapshot sources.SnapshotWriter, taxonomy core.Taxonomy, publisher Publisher, logger *log.Logger) *SyncService {
	if logger == nil {
		logger = log.Discard()
	}
	if len(taxonomy.Rules) == 0 {
		taxonomy = core.DefaultTaxonomy()
	}
	logger = logger.WithComponent(log.ComponentSync)
	return &SyncService{
		live:       live,
		snapshot:   snapshot,
		taxonomy:   taxonomy,
		publisher:  publisher,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// OnSynced registers a callback run after every successful sync, typically
// a cache invalidation.
func (s *SyncService) OnSynced(fn func()) {
	s.invalidate = append(s.invalidate, fn)
}

// Async reports whether Request queues work instead of running it.
func (s *SyncService) Async() bool {
	return s.publisher != nil
}

// Request queues a sync when a publisher is configured, else runs it inline.
func (s *SyncService) Request(ctx context.Context) (SyncResult, error) {
	if s.live == nil {
		return SyncResult{}, sources.ErrNotConfigured
	}
	if s.publisher == nil {
		return s.Run(ctx, uuid.NewString())
	}

	req := amqp.NewSyncRequest(string(s.live.Kind()))
	if err := s.publisher.PublishSyncRequest(ctx, req); err != nil {
		return SyncResult{}, fmt.Errorf("queue sync: %w", err)
	}
	s.logger.InfoContext(ctx, "Sync queued", log.FieldJobID, req.JobID.String())
	return SyncResult{JobID: req.JobID.String(), Queued: true}, nil
}

// Run performs one sync now.
func (s *SyncService) Run(ctx context.Context, jobID string) (SyncResult, error) {
	if s.live == nil {
		return SyncResult{}, sources.ErrNotConfigured
	}

	raws, err := s.live.FetchTransactions(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch live transactions: %w", err)
	}
	batch := core.NormalizeAll(raws, s.live.Kind(), s.taxonomy)

	if err := s.snapshot.ReplaceTransactions(ctx, batch.Transactions); err != nil {
		s.structured.LogError(ctx, "Snapshot replace failed", err, log.ComponentSync, log.OpSync,
			log.NewFields().WithJobID(jobID).WithSource(string(s.live.Kind())))
		return SyncResult{}, fmt.Errorf("replace snapshot: %w", err)
	}
	for _, fn := range s.invalidate {
		fn()
	}

	s.structured.LogSyncCompleted(ctx, jobID, string(s.live.Kind()), len(batch.Transactions), batch.DroppedCount())
	return SyncResult{
		JobID:        jobID,
		Transactions: len(batch.Transactions),
		Dropped:      batch.DroppedCount(),
	}, nil
}

// HandleSyncRequest runs a queued request. It satisfies amqp.Handler.
func (s *SyncService) HandleSyncRequest(ctx context.Context, req *amqp.SyncRequest) error {
	_, err := s.Run(ctx, req.JobID.String())
	return err
}
