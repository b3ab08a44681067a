package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/framecut/framecut/internal/timeline"
)

const maxProjectNameLen = 64

// Exporter writes one EDL per non-empty track.
type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

func (e *Exporter) Export(clips []timeline.ExportClip, unresolved []string, req Request) (*Response, error) {
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, ErrNothingToExport
	}

	name := SanitizeName(req.ProjectName, maxProjectNameLen)
	if name == "" {
		name = "Untitled"
	}

	resp := &Response{
		Status:          "ok",
		Format:          FormatEDL,
		ClipCount:       len(clips),
		UnresolvedClips: unresolved,
	}
	if resp.UnresolvedClips == nil {
		resp.UnresolvedClips = []string{}
	}

	for _, track := range []timeline.Track{timeline.TrackMain, timeline.TrackOverlay} {
		events := EventsForTrack(clips, track)
		if len(events) == 0 {
			continue
		}
		title := fmt.Sprintf("%s (%s)", name, track)
		out := filepath.Join(req.OutputDir, fmt.Sprintf("%s_%s.edl", name, track))
		if err := os.WriteFile(out, []byte(GenerateEDL(events, title, req.FrameRate)), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(out), err)
		}
		resp.OutputPaths = append(resp.OutputPaths, out)
	}

	if e.logger != nil {
		e.logger.Info("timeline exported", "files", len(resp.OutputPaths),
			"clips", resp.ClipCount, "unresolved", len(resp.UnresolvedClips))
	}
	return resp, nil
}
