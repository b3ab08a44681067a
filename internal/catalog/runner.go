package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/framecut/framecut/internal/logging"
)

const DefaultPollInterval = 2 * time.Second

// Runner drains pending import and scan jobs one at a time.
type Runner struct {
	service      *Service
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
	wake         chan struct{}
}

func NewRunner(service *Service, repo Repository, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		service:      service,
		repo:         repo,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		wake:         make(chan struct{}, 1),
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
		case <-r.wake:
		}
		if r.paused.Load() {
			continue
		}
		for r.processNextJob(ctx) {
			if ctx.Err() != nil || r.paused.Load() {
				break
			}
		}
	}
}

// Wake asks the runner to poll now instead of waiting for the next tick.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
	r.Wake()
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// processNextJob runs the oldest pending job and reports whether one ran.
func (r *Runner) processNextJob(ctx context.Context) bool {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}
	if len(jobs) == 0 {
		return false
	}

	job := jobs[0]
	log := logging.WithJobID(r.logger, job.ID)
	log.Info("processing job", "type", job.Type, "path", job.Path)

	switch job.Type {
	case JobTypeImport:
		if err := r.service.ExecuteImport(ctx, job); err != nil {
			log.Error("import failed", "error", err)
		}
	case JobTypeScan:
		if err := r.service.ExecuteScan(ctx, job); err != nil {
			log.Error("scan failed", "error", err)
		}
	default:
		log.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
	return true
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Active() {
			count++
		}
	}
	return count
}
