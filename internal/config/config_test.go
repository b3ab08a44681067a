package config

import (
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/framecut-test")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.UndoCapacity() != 50 {
		t.Errorf("UndoCapacity() = %d, want 50", cfg.UndoCapacity())
	}
	if cfg.SnapThreshold() != 0.3 || cfg.TrackSwitchPx() != 50 || cfg.PixelsPerSecond() != 50 {
		t.Errorf("gesture defaults = %v/%v/%v", cfg.SnapThreshold(), cfg.TrackSwitchPx(), cfg.PixelsPerSecond())
	}
	if cfg.Headless() {
		t.Error("Headless() should default to false")
	}
	if cfg.DBPath() != filepath.Join("/tmp/framecut-test", DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.ExportDir() != filepath.Join("/tmp/framecut-test", "exports") {
		t.Errorf("ExportDir() = %q", cfg.ExportDir())
	}
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv(EnvPort, "9001")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvFFprobe, "/opt/bin/ffprobe")
	t.Setenv(EnvUndoCapacity, "10")
	t.Setenv(EnvSnapThreshold, "0")
	t.Setenv(EnvPixelsPerSecond, "120")
	t.Setenv(EnvFrameRate, "25")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9001 || !cfg.Headless() || cfg.FFprobePath() != "/opt/bin/ffprobe" {
		t.Errorf("cfg = port %d headless %v ffprobe %q", cfg.Port(), cfg.Headless(), cfg.FFprobePath())
	}
	if cfg.UndoCapacity() != 10 || cfg.SnapThreshold() != 0 || cfg.PixelsPerSecond() != 120 || cfg.FrameRate() != 25 {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvHeadless, "maybe"},
		{EnvUndoCapacity, "0"},
		{EnvSnapThreshold, "-1"},
		{EnvPixelsPerSecond, "0"},
		{EnvFrameRate, "fast"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%s should fail", tt.env, tt.value)
			}
		})
	}
}
