package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/framecut/framecut/internal/logging"
	"github.com/framecut/framecut/internal/probe"
)

var (
	ErrNotVideo        = errors.New("not a supported video file")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrAlreadyImported = errors.New("file already imported")
	ErrEmptyMedia      = errors.New("media has no duration")
)

// CatalogService is the part of the catalog the HTTP API and CLI use.
type CatalogService interface {
	Import(ctx context.Context, path string) (*Job, error)
	ImportFolder(ctx context.Context, path string) (*Job, error)
	ImportNow(ctx context.Context, path string) (*SourceClip, error)
	ListClips(ctx context.Context) ([]*SourceClip, error)
	GetClip(ctx context.Context, id string) (*SourceClip, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
}

type Service struct {
	repo     Repository
	prober   probe.Prober
	registry *Registry
	logger   *slog.Logger
}

func NewService(repo Repository, prober probe.Prober, registry *Registry, logger *slog.Logger) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{repo: repo, prober: prober, registry: registry, logger: logger}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// LoadRegistry restores previously imported clips into the registry.
func (s *Service) LoadRegistry(ctx context.Context) error {
	if err := s.registry.Load(ctx, s.repo); err != nil {
		return fmt.Errorf("load clips: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("clip registry loaded", "count", s.registry.Len())
	}
	return nil
}

func (s *Service) ListClips(ctx context.Context) ([]*SourceClip, error) {
	return s.repo.ListClips(ctx)
}

func (s *Service) GetClip(ctx context.Context, id string) (*SourceClip, error) {
	return s.repo.GetClip(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

// Import queues an import job for a single file. A job already pending for
// the same path is returned instead of a new one.
func (s *Service) Import(ctx context.Context, path string) (*Job, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() || !IsVideoFile(absPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotVideo, filepath.Base(absPath))
	}

	existing, err := s.repo.GetClipByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyImported, existing.ID)
	}

	return s.enqueue(ctx, JobTypeImport, absPath)
}

// ImportFolder queues a scan job that walks path and queues an import for
// every video file it finds.
func (s *Service) ImportFolder(ctx context.Context, path string) (*Job, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}
	return s.enqueue(ctx, JobTypeScan, absPath)
}

func (s *Service) enqueue(ctx context.Context, jobType, path string) (*Job, error) {
	active, err := s.repo.GetActiveJobByPath(ctx, jobType, path)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    JobStatusPending,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("job created", "job_id", job.ID, "type", jobType, "path", path)
	}
	return job, nil
}

// ImportNow probes path and registers it as a source clip. Importing a path
// twice returns the existing clip.
func (s *Service) ImportNow(ctx context.Context, path string) (*SourceClip, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if !IsVideoFile(absPath) {
		return nil, fmt.Errorf("%w: %s", ErrNotVideo, filepath.Base(absPath))
	}

	existing, err := s.repo.GetClipByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.registry.Add(existing)
		return existing, nil
	}

	if s.prober == nil {
		return nil, errors.New("no prober configured")
	}
	res, err := s.prober.Probe(ctx, absPath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filepath.Base(absPath), err)
	}
	if res.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMedia, filepath.Base(absPath))
	}

	clip := &SourceClip{
		ID:              NewID(),
		Path:            absPath,
		Filename:        filepath.Base(absPath),
		DurationSeconds: res.Duration,
		Width:           res.Width,
		Height:          res.Height,
		Resolution:      res.Resolution,
		Codec:           res.Codec,
		FrameRate:       res.FrameRate,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.CreateClip(ctx, clip); err != nil {
		return nil, err
	}
	s.registry.Add(clip)

	if s.logger != nil {
		logging.WithClipID(s.logger, clip.ID).Info("clip imported", "path", absPath,
			"duration", clip.DurationSeconds, "resolution", clip.Resolution)
	}
	return clip, nil
}

func (s *Service) ExecuteImport(ctx context.Context, job *Job) error {
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	clip, err := s.ImportNow(ctx, job.Path)
	if err != nil {
		s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return err
	}

	if err := s.repo.SetJobClip(ctx, job.ID, clip.ID); err != nil && s.logger != nil {
		s.logger.Warn("failed to link job to clip", "job_id", job.ID, "error", err)
	}
	s.repo.UpdateJobProgress(ctx, job.ID, 100)
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	return nil
}

func (s *Service) ExecuteScan(ctx context.Context, job *Job) error {
	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	if s.logger != nil {
		s.logger.Info("starting scan", "job_id", job.ID, "path", job.Path)
	}

	var files []string
	err := filepath.WalkDir(job.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && p != job.Path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && IsVideoFile(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return err
	}

	total := len(files)
	queued := 0
	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "cancelled")
			return ctx.Err()
		default:
		}

		if _, err := s.Import(ctx, filePath); err != nil {
			if !errors.Is(err, ErrAlreadyImported) && s.logger != nil {
				s.logger.Warn("failed to queue import", "path", filePath, "error", err)
			}
		} else {
			queued++
		}

		s.repo.UpdateJobProgress(ctx, job.ID, (i+1)*100/total)
	}

	s.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	if s.logger != nil {
		s.logger.Info("scan completed", "job_id", job.ID, "found", total, "queued", queued)
	}
	return nil
}
