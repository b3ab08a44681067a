package probe

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Capabilities reports whether the probe binary can be run.
type Capabilities struct {
	FFprobe  bool      `json:"ffprobe"`
	Path     string    `json:"path,omitempty"`
	Version  string    `json:"version,omitempty"`
	Error    string    `json:"error,omitempty"`
	ProbedAt time.Time `json:"probed_at"`
}

// VersionFunc runs the probe binary and returns its first version line.
type VersionFunc func(ctx context.Context) (path, version string, err error)

// CachedDoctor caches dependency checks with a TTL so status requests do not
// spawn a process each time.
type CachedDoctor struct {
	check  VersionFunc
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(check VersionFunc, logger *slog.Logger) *CachedDoctor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedDoctor{
		check:  check,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-checks.
func (d *CachedDoctor) Get(ctx context.Context) *Capabilities {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh re-runs the check regardless of cache freshness. A failed check is
// cached too: a missing binary stays missing until it is installed.
func (d *CachedDoctor) Refresh(ctx context.Context) *Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps := &Capabilities{ProbedAt: time.Now()}
	path, version, err := d.check(ctx)
	if err != nil {
		d.logger.Warn("ffprobe unavailable, imports will fail", "error", err)
		caps.Error = err.Error()
	} else {
		caps.FFprobe = true
		caps.Path = path
		caps.Version = version
	}

	d.cached = caps
	return caps
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

// Version implements VersionFunc for the ffprobe binary.
func (f *FFprobe) Version(ctx context.Context) (string, string, error) {
	path, err := exec.LookPath(f.bin)
	if err != nil {
		return "", "", fmt.Errorf("find %s: %w", f.bin, err)
	}
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return path, "", fmt.Errorf("%s -version: %w", f.bin, err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return path, strings.TrimSpace(line), nil
}
