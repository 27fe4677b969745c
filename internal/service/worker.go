package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// JobProcessor runs one sync job end to end
type JobProcessor interface {
	ProcessSync(ctx context.Context, jobID int64) error
}

// ErrQueueFull is returned by Dispatch when the job buffer has no room.
// The job stays PENDING in the store; the caller decides how to surface it.
var ErrQueueFull = errors.New("sync job queue full")

// SyncWorkerPool runs sync jobs on a fixed set of background workers. Job IDs
// arrive through a buffered channel so TriggerSync never blocks on a slow
// pipeline.
type SyncWorkerPool struct {
	processor JobProcessor
	logger    zerolog.Logger
	workers   int
	jobs      chan int64
	stopCh    chan struct{}
	doneCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewSyncWorkerPool creates a worker pool with the given concurrency and
// queue depth.
func NewSyncWorkerPool(processor JobProcessor, workers, queueSize int, logger zerolog.Logger) *SyncWorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	return &SyncWorkerPool{
		processor: processor,
		logger:    logger.With().Str("component", "sync_worker_pool").Logger(),
		workers:   workers,
		jobs:      make(chan int64, queueSize),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the workers
func (p *SyncWorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info().Int("workers", p.workers).Msg("Starting sync worker pool")

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(ctx, i)
	}
	go func() {
		p.wg.Wait()
		close(p.doneCh)
	}()
}

// Stop signals the workers and waits for in-flight jobs to finish
func (p *SyncWorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info().Msg("Stopping sync worker pool")
	close(p.stopCh)
	<-p.doneCh
	p.logger.Info().Msg("Sync worker pool stopped")
}

// Dispatch queues a job for processing without blocking
func (p *SyncWorkerPool) Dispatch(jobID int64) error {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running {
		return errors.New("sync worker pool not running")
	}

	select {
	case p.jobs <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *SyncWorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case jobID := <-p.jobs:
			p.logger.Debug().Int("worker", id).Int64("job_id", jobID).Msg("Picked up sync job")
			if err := p.processor.ProcessSync(ctx, jobID); err != nil {
				p.logger.Error().Err(err).Int("worker", id).Int64("job_id", jobID).Msg("Sync job failed")
			}
		}
	}
}
