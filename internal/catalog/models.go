// Package catalog owns the media library: imported source clips, the jobs
// that probe and register them, and the in-memory registry the timeline
// resolves source ids against.
package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/framecut/framecut/internal/timeline"
)

// SourceClip is an imported media file. Records are never updated or
// removed once created.
type SourceClip struct {
	ID              string    `json:"id"`
	Path            string    `json:"path"`
	Filename        string    `json:"filename"`
	DurationSeconds float64   `json:"duration_seconds"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Resolution      string    `json:"resolution"`
	Codec           string    `json:"codec"`
	FrameRate       float64   `json:"frame_rate"`
	CreatedAt       time.Time `json:"created_at"`
}

// Timeline is the view of the clip the editing core needs.
func (c *SourceClip) Timeline() timeline.SourceClip {
	return timeline.SourceClip{ID: c.ID, Duration: c.DurationSeconds, Path: c.Path}
}

const (
	JobTypeImport = "import"
	JobTypeScan   = "scan"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Path      string    `json:"path"`
	ClipID    string    `json:"clip_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the job is still queued or in flight.
func (j *Job) Active() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusRunning
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
}

func NewID() string {
	return uuid.NewString()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}
