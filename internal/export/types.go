package export

import "errors"

var (
	ErrNothingToExport = errors.New("timeline has no resolvable clips")
)

const FormatEDL = "edl"

type Request struct {
	ProjectName string  `json:"project_name"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

// Event is one EDL line: a source range and the timeline range it occupies.
type Event struct {
	ClipName  string
	MediaPath string
	SourceIn  float64
	SourceOut float64
	RecordIn  float64
}

func (e Event) RecordOut() float64 {
	return e.RecordIn + (e.SourceOut - e.SourceIn)
}

type Response struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPaths     []string `json:"output_paths"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips"`
}
