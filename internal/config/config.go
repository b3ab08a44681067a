// Package config provides configuration management for framecut.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// Default values
	DefaultPort            = 8790
	DefaultLogLevel        = "info"
	DefaultDataDir         = ".framecut"
	DefaultFFprobe         = "ffprobe"
	DefaultUndoCapacity    = 50
	DefaultSnapThreshold   = 0.3 // seconds
	DefaultTrackSwitchPx   = 50.0
	DefaultPixelsPerSecond = 50.0
	DefaultFrameRate       = 30.0

	// Environment variable names
	EnvPort            = "FRAMECUT_PORT"
	EnvLogLevel        = "FRAMECUT_LOG_LEVEL"
	EnvDataDir         = "FRAMECUT_DATA_DIR"
	EnvHeadless        = "FRAMECUT_HEADLESS"
	EnvFFprobe         = "FRAMECUT_FFPROBE"
	EnvUndoCapacity    = "FRAMECUT_UNDO_CAPACITY"
	EnvSnapThreshold   = "FRAMECUT_SNAP_THRESHOLD"
	EnvTrackSwitchPx   = "FRAMECUT_TRACK_SWITCH_PX"
	EnvPixelsPerSecond = "FRAMECUT_PIXELS_PER_SECOND"
	EnvFrameRate       = "FRAMECUT_FRAME_RATE"

	// Database filename
	DBFilename = "framecut.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ExportDir() string
	Headless() bool
	FFprobePath() string
	UndoCapacity() int
	SnapThreshold() float64
	TrackSwitchPx() float64
	PixelsPerSecond() float64
	FrameRate() float64
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port            int
	logLevel        string
	dataDir         string
	headless        bool
	ffprobe         string
	undoCapacity    int
	snapThreshold   float64
	trackSwitchPx   float64
	pixelsPerSecond float64
	frameRate       float64
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		dataDir:         defaultDataDir(),
		ffprobe:         DefaultFFprobe,
		undoCapacity:    DefaultUndoCapacity,
		snapThreshold:   DefaultSnapThreshold,
		trackSwitchPx:   DefaultTrackSwitchPx,
		pixelsPerSecond: DefaultPixelsPerSecond,
		frameRate:       DefaultFrameRate,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if fp := os.Getenv(EnvFFprobe); fp != "" {
		cfg.ffprobe = fp
	}

	if uc := os.Getenv(EnvUndoCapacity); uc != "" {
		n, err := strconv.Atoi(uc)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvUndoCapacity, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid %s: must be at least 1", EnvUndoCapacity)
		}
		cfg.undoCapacity = n
	}

	var err error
	if cfg.snapThreshold, err = floatEnv(EnvSnapThreshold, cfg.snapThreshold, true); err != nil {
		return nil, err
	}
	if cfg.trackSwitchPx, err = floatEnv(EnvTrackSwitchPx, cfg.trackSwitchPx, false); err != nil {
		return nil, err
	}
	if cfg.pixelsPerSecond, err = floatEnv(EnvPixelsPerSecond, cfg.pixelsPerSecond, false); err != nil {
		return nil, err
	}
	if cfg.frameRate, err = floatEnv(EnvFrameRate, cfg.frameRate, false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// floatEnv parses a numeric override. Zero is only accepted when allowZero is
// set; negatives never are.
func floatEnv(name string, def float64, allowZero bool) (float64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v < 0 || (v == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return v, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ExportDir is where EDL files are written when no directory is given.
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) UndoCapacity() int {
	return c.undoCapacity
}

// SnapThreshold is the magnetic snap distance in seconds. Zero disables
// snapping.
func (c *EnvConfig) SnapThreshold() float64 {
	return c.snapThreshold
}

func (c *EnvConfig) TrackSwitchPx() float64 {
	return c.trackSwitchPx
}

func (c *EnvConfig) PixelsPerSecond() float64 {
	return c.pixelsPerSecond
}

// FrameRate is used for EDL timecodes and the preview tick rate.
func (c *EnvConfig) FrameRate() float64 {
	return c.frameRate
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
