// Package probe reads container and stream metadata from video files using
// ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrNoVideoStream = errors.New("no video stream found in file")
	ErrNotFound      = errors.New("file not found")
)

// Prober extracts metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Result, error)
}

type Result struct {
	Filename   string  `json:"filename"`
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution string  `json:"resolution"`
	Codec      string  `json:"codec"`
	FrameRate  float64 `json:"frame_rate"`
}

type FFprobe struct {
	bin    string
	logger *slog.Logger
}

func NewFFprobe(bin string, logger *slog.Logger) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FFprobe{bin: bin, logger: logger}
}

func (f *FFprobe) Probe(ctx context.Context, path string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	cmd := exec.CommandContext(ctx, f.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if f.logger != nil {
			f.logger.Warn("ffprobe failed", "path", path, "stderr", strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}

	res, err := Parse(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	res.Path = path
	res.Filename = filepath.Base(path)

	if f.logger != nil {
		f.logger.Debug("probed file", "path", path, "duration", res.Duration, "resolution", res.Resolution)
	}
	return res, nil
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Parse decodes `ffprobe -print_format json -show_format -show_streams`
// output. The first video stream wins; the container duration is preferred
// over the stream duration.
func Parse(data []byte) (*Result, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		duration := parseFloat(out.Format.Duration)
		if duration <= 0 {
			duration = parseFloat(s.Duration)
		}
		fps := parseRate(s.AvgFrameRate)
		if fps <= 0 {
			fps = parseRate(s.RFrameRate)
		}
		return &Result{
			Duration:   duration,
			Width:      s.Width,
			Height:     s.Height,
			Resolution: fmt.Sprintf("%dx%d", s.Width, s.Height),
			Codec:      s.CodecName,
			FrameRate:  fps,
		}, nil
	}
	return nil, ErrNoVideoStream
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRate handles ffprobe's "num/den" rationals, e.g. "30000/1001".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

// Static returns canned results keyed by path.
type Static map[string]*Result

func (s Static) Probe(_ context.Context, path string) (*Result, error) {
	r, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	cp := *r
	if cp.Path == "" {
		cp.Path = path
	}
	if cp.Filename == "" {
		cp.Filename = filepath.Base(path)
	}
	return &cp, nil
}
