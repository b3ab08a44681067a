package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/gesture"
	"github.com/framecut/framecut/internal/playback"
	"github.com/framecut/framecut/internal/probe"
	"github.com/framecut/framecut/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State         string              `json:"state"`
	LastError     string              `json:"last_error,omitempty"`
	ClipsCount    int                 `json:"clips_count"`
	JobsRunning   int                 `json:"jobs_running"`
	ActiveJob     *JobResponse        `json:"active_job,omitempty"`
	Transport     playback.Mode       `json:"transport"`
	TimelineClips int                 `json:"timeline_clips"`
	Dependencies  *probe.Capabilities `json:"dependencies,omitempty"`
}

type ImportRequest struct {
	Path string `json:"path"`
}

type ImportResponse struct {
	JobID string `json:"job_id"`
}

type ClipResponse struct {
	ID              string  `json:"id"`
	Path            string  `json:"path"`
	Filename        string  `json:"filename"`
	DurationSeconds float64 `json:"duration_seconds"`
	Resolution      string  `json:"resolution"`
	Codec           string  `json:"codec"`
	FrameRate       float64 `json:"frame_rate"`
	CreatedAt       string  `json:"created_at"`
}

type ClipsResponse struct {
	Clips []ClipResponse `json:"clips"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Path      string `json:"path,omitempty"`
	ClipID    string `json:"clip_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// TimelineResponse is the full editor state plus the preview frame it
// resolves to.
type TimelineResponse struct {
	State editor.State   `json:"state"`
	Frame playback.Frame `json:"frame"`
}

// EditResponse reports the outcome of an editing command. Rejected commands
// are not errors: Applied is false and Reason says why.
type EditResponse struct {
	Applied bool            `json:"applied"`
	Reason  string          `json:"reason,omitempty"`
	Clip    *timeline.Clip  `json:"clip,omitempty"`
	Clips   []timeline.Clip `json:"clips,omitempty"`
	Trim    *TrimPreview    `json:"trim,omitempty"`
	Move    *MovePreview    `json:"move,omitempty"`
	State   editor.State    `json:"state"`
}

type TrimPreview struct {
	Clip       timeline.Clip `json:"clip"`
	Playhead   float64       `json:"playhead"`
	SourceSeek float64       `json:"source_seek"`
}

type MovePreview struct {
	Clip timeline.Clip        `json:"clip"`
	Snap *timeline.SnapTarget `json:"snap,omitempty"`
}

type DropRequest struct {
	SourceID string  `json:"source_id"`
	Track    string  `json:"track"`
	XPx      float64 `json:"x_px"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type SelectRequest struct {
	TimelineClipID string `json:"timeline_clip_id,omitempty"`
	LibraryClipID  string `json:"library_clip_id,omitempty"`
}

type TrimBeginRequest struct {
	ClipID string `json:"clip_id"`
	Edge   string `json:"edge"`
}

type MoveBeginRequest struct {
	ClipID string `json:"clip_id"`
}

type DragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type TransportResponse struct {
	Mode  playback.Mode  `json:"mode"`
	Frame playback.Frame `json:"frame"`
}

type ExportRequest struct {
	ProjectName string  `json:"project_name"`
	OutputDir   string  `json:"output_dir,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ClipToResponse(c *catalog.SourceClip) ClipResponse {
	return ClipResponse{
		ID:              c.ID,
		Path:            c.Path,
		Filename:        c.Filename,
		DurationSeconds: c.DurationSeconds,
		Resolution:      c.Resolution,
		Codec:           c.Codec,
		FrameRate:       c.FrameRate,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Path:      j.Path,
		ClipID:    j.ClipID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func TrimToPreview(r timeline.TrimResult) *TrimPreview {
	return &TrimPreview{Clip: r.Clip, Playhead: r.Playhead, SourceSeek: r.SourceSeek}
}

func MoveToPreview(m gesture.MoveCandidate) *MovePreview {
	return &MovePreview{Clip: m.Clip, Snap: m.Snap}
}

func parseTrack(s string) (timeline.Track, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "main", "0":
		return timeline.TrackMain, nil
	case "overlay", "1":
		return timeline.TrackOverlay, nil
	}
	return 0, fmt.Errorf("unknown track %q", s)
}

func parseEdge(s string) (timeline.Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "left":
		return timeline.EdgeStart, nil
	case "end", "right":
		return timeline.EdgeEnd, nil
	}
	return 0, fmt.Errorf("unknown edge %q", s)
}
