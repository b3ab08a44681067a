package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/framecut/framecut/internal/timeline"
)

// GenerateEDL renders a CMX3600 edit decision list. Record timecodes are the
// events' timeline positions, so gaps between clips are preserved.
func GenerateEDL(events []Event, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	timecode := secondsToTimecode
	if isDropFrame {
		timecode = dropFrameTimecode
	}

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		srcIn := timecode(ev.SourceIn, fps)
		srcOut := timecode(ev.SourceOut, fps)
		recIn := timecode(ev.RecordIn, fps)
		recOut := timecode(ev.RecordOut(), fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// EventsForTrack picks the clips on track, keeping the export order.
func EventsForTrack(clips []timeline.ExportClip, track timeline.Track) []Event {
	var events []Event
	for _, c := range clips {
		if c.Track != track {
			continue
		}
		events = append(events, Event{
			ClipName:  filepath.Base(c.SourcePath),
			MediaPath: c.SourcePath,
			SourceIn:  c.TrimStart,
			SourceOut: c.TrimEnd,
			RecordIn:  c.StartTime,
		})
	}
	return events
}

func secondsToTimecode(sec float64, fps int) string {
	return formatTimecode(int(math.Round(sec*float64(fps))), fps, ":")
}

// dropFrameTimecode labels sec on a 29.97 or 59.94 clock, where fps is the
// nominal 30 or 60. Frame numbers 0-1 (0-3 at 60) are skipped at the start of
// every minute except each tenth.
func dropFrameTimecode(sec float64, fps int) string {
	drop := fps / 15
	n := int(math.Round(sec * float64(fps) * 1000 / 1001))
	if n < 0 {
		n = 0
	}
	perMinute := fps*60 - drop
	perTenMinutes := perMinute*10 + drop
	tens, rem := n/perTenMinutes, n%perTenMinutes
	n += 9 * drop * tens
	if rem > drop {
		n += drop * ((rem - drop) / perMinute)
	}
	return formatTimecode(n, fps, ";")
}

func formatTimecode(totalFrames, fps int, frameSep string) string {
	if totalFrames < 0 {
		totalFrames = 0
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", hours, minutes, seconds, frameSep, frames)
}
