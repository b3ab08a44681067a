package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/db"
	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/export"
	"github.com/framecut/framecut/internal/playback"
	"github.com/framecut/framecut/internal/probe"
	"github.com/framecut/framecut/internal/timeline"
)

const testToken = "test-token-0123456789"

type testServer struct {
	cfg     ServerConfig
	router  http.Handler
	session *editor.Session
	dir     string
	clipA   *catalog.SourceClip
	clipB   *catalog.SourceClip
}

// newTestServer wires a router over a real sqlite catalog holding two
// imported clips: a (10s) and b (5s).
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	repo := catalog.NewRepository(database.Conn())
	if err := repo.SetConfig(ctx, AuthTokenKey, testToken); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	pathA := writeFile(t, dir, "a.mp4", "aaaaaaaaaa")
	pathB := writeFile(t, dir, "b.mov", "bbbbb")
	prober := probe.Static{
		pathA: {Duration: 10, Width: 1920, Height: 1080, Resolution: "1920x1080", Codec: "h264", FrameRate: 30},
		pathB: {Duration: 5, Width: 1280, Height: 720, Resolution: "1280x720", Codec: "h264", FrameRate: 25},
	}

	svc := catalog.NewService(repo, prober, nil, nil)
	clipA, err := svc.ImportNow(ctx, pathA)
	if err != nil {
		t.Fatal(err)
	}
	clipB, err := svc.ImportNow(ctx, pathB)
	if err != nil {
		t.Fatal(err)
	}

	session := editor.New(svc.Registry(), editor.Options{}, nil)
	transport := playback.NewTransport(session, svc.Registry(), playback.NewClockVideo(nil), playback.NewManualScheduler(), nil)
	hub := NewHub(session, transport, nil)
	session.Subscribe(hub.OnChange)

	cfg := ServerConfig{
		Catalog:    svc,
		Repository: repo,
		Session:    session,
		Transport:  transport,
		Media:      playback.NewMediaServer(nil),
		Exporter:   export.NewExporter(nil),
		ExportDir:  t.TempDir(),
		FrameRate:  30,
		Hub:        hub,
		Logger:     slog.New(slog.DiscardHandler),
		StartTime:  time.Now(),
	}
	return &testServer{
		cfg:     cfg,
		router:  NewRouter(cfg),
		session: session,
		dir:     dir,
		clipA:   clipA,
		clipB:   clipB,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// edit sends an editing command and decodes the EditResponse.
func (s *testServer) edit(t *testing.T, method, path string, body any) EditResponse {
	t.Helper()
	rr := s.do(t, method, path, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("%s %s: status = %d, body = %s", method, path, rr.Code, rr.Body.String())
	}
	var resp EditResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp
}

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing", "/status", "", http.StatusUnauthorized},
		{"wrong bearer", "/status", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "/status", "Basic " + testToken, http.StatusUnauthorized},
		{"bearer", "/status", "Bearer " + testToken, http.StatusOK},
		{"query token", "/status?token=" + testToken, "", http.StatusOK},
		{"wrong query token", "/status?token=nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/status", nil)

	var resp StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.State != "idle" || resp.ClipsCount != 2 || resp.Transport != playback.ModeStopped || resp.TimelineClips != 0 {
		t.Errorf("status = %+v", resp)
	}
}

func TestStatus_ReportsDependencies(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Doctor = probe.NewCachedDoctor(func(ctx context.Context) (string, string, error) {
		return "/usr/bin/ffprobe", "ffprobe version 6.1", nil
	}, nil)
	router := NewRouter(s.cfg)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp StatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Dependencies == nil || !resp.Dependencies.FFprobe {
		t.Errorf("dependencies = %+v", resp.Dependencies)
	}
}

func TestClips(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/clips", nil)
	var list ClipsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Clips) != 2 {
		t.Fatalf("clips = %d, want 2", len(list.Clips))
	}

	rr = s.do(t, http.MethodGet, "/clips/"+s.clipA.ID, nil)
	var clip ClipResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &clip); err != nil {
		t.Fatal(err)
	}
	if clip.Filename != "a.mp4" || clip.DurationSeconds != 10 || clip.Resolution != "1920x1080" {
		t.Errorf("clip = %+v", clip)
	}

	if rr := s.do(t, http.MethodGet, "/clips/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown clip status = %d, want 404", rr.Code)
	}
}

func TestImport(t *testing.T) {
	s := newTestServer(t)
	pathC := writeFile(t, s.dir, "c.webm", "ccc")

	rr := s.do(t, http.MethodPost, "/clips/import", ImportRequest{Path: pathC})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp ImportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	rr = s.do(t, http.MethodGet, "/jobs/"+resp.JobID, nil)
	var job JobResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.Type != catalog.JobTypeImport || job.Status != catalog.JobStatusPending {
		t.Errorf("job = %+v", job)
	}

	tests := []struct {
		name string
		body ImportRequest
		want int
	}{
		{"already imported", ImportRequest{Path: s.clipA.Path}, http.StatusConflict},
		{"missing path", ImportRequest{}, http.StatusBadRequest},
		{"not a video", ImportRequest{Path: writeFile(t, s.dir, "notes.txt", "x")}, http.StatusBadRequest},
		{"does not exist", ImportRequest{Path: filepath.Join(s.dir, "nope.mp4")}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := s.do(t, http.MethodPost, "/clips/import", tt.body); rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestEditFlow_DropSplitUndoRedo(t *testing.T) {
	s := newTestServer(t)

	drop := s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipA.ID, Track: "main", XPx: 0})
	if !drop.Applied || drop.Clip == nil {
		t.Fatalf("drop = %+v", drop)
	}
	id := drop.Clip.ID

	s.edit(t, http.MethodPost, "/timeline/seek", SeekRequest{Time: 4})
	if sel := s.edit(t, http.MethodPost, "/selection", SelectRequest{TimelineClipID: id}); !sel.Applied {
		t.Fatalf("select = %+v", sel)
	}

	split := s.edit(t, http.MethodPost, "/timeline/split", nil)
	if !split.Applied || len(split.Clips) != 2 {
		t.Fatalf("split = %+v", split)
	}
	left, right := split.Clips[0], split.Clips[1]
	if left.TrimEnd != 4 || right.TrimStart != 4 || right.StartTime != 4 {
		t.Errorf("split halves = %+v / %+v", left, right)
	}
	if got := split.State.Timeline.Len(); got != 2 {
		t.Errorf("timeline clips after split = %d, want 2", got)
	}
	if !split.State.CanUndo {
		t.Error("split should be undoable")
	}

	undo := s.edit(t, http.MethodPost, "/timeline/undo", nil)
	if !undo.Applied || undo.State.Timeline.Len() != 1 || !undo.State.CanRedo {
		t.Errorf("undo = %+v", undo)
	}
	redo := s.edit(t, http.MethodPost, "/timeline/redo", nil)
	if !redo.Applied || redo.State.Timeline.Len() != 2 {
		t.Errorf("redo = %+v", redo)
	}
	if again := s.edit(t, http.MethodPost, "/timeline/redo", nil); again.Applied || again.Reason != "nothing to redo" {
		t.Errorf("second redo = %+v", again)
	}
}

func TestEdit_RejectedCommandsReportReason(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"drop unknown source", http.MethodPost, "/timeline/clips", DropRequest{SourceID: "nope"}},
		{"split without selection", http.MethodPost, "/timeline/split", nil},
		{"delete without selection", http.MethodPost, "/timeline/delete", nil},
		{"delete unknown clip", http.MethodDelete, "/timeline/clips/nope", nil},
		{"undo empty history", http.MethodPost, "/timeline/undo", nil},
		{"trim unknown clip", http.MethodPost, "/gestures/trim/begin", TrimBeginRequest{ClipID: "nope", Edge: "end"}},
		{"trim update without gesture", http.MethodPost, "/gestures/trim/update", DragRequest{DX: 10}},
		{"move end without gesture", http.MethodPost, "/gestures/move/end", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.edit(t, tt.method, tt.path, tt.body)
			if resp.Applied || resp.Reason == "" {
				t.Errorf("response = %+v, want applied=false with reason", resp)
			}
		})
	}

	if got := s.session.Timeline().Len(); got != 0 {
		t.Errorf("rejected commands changed the timeline: %d clips", got)
	}
}

func TestEdit_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"bad track", "/timeline/clips", DropRequest{SourceID: s.clipA.ID, Track: "audio"}},
		{"bad edge", "/gestures/trim/begin", TrimBeginRequest{ClipID: "x", Edge: "middle"}},
		{"two selections", "/selection", SelectRequest{TimelineClipID: "x", LibraryClipID: "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := s.do(t, http.MethodPost, tt.path, tt.body); rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/timeline/seek", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rr.Code)
	}
}

func TestTrimGesture(t *testing.T) {
	s := newTestServer(t)
	drop := s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipA.ID})
	id := drop.Clip.ID

	if begin := s.edit(t, http.MethodPost, "/gestures/trim/begin", TrimBeginRequest{ClipID: id, Edge: "end"}); !begin.Applied {
		t.Fatalf("begin = %+v", begin)
	}
	// 50 px/s: -100px pulls the end in by two seconds.
	upd := s.edit(t, http.MethodPost, "/gestures/trim/update", DragRequest{DX: -100})
	if !upd.Applied || upd.Trim == nil || upd.Trim.Clip.TrimEnd != 8 {
		t.Fatalf("update = %+v", upd)
	}
	if upd.State.Gesture == nil {
		t.Error("state should carry the gesture preview")
	}
	if c, _, _ := s.session.Timeline().Find(id); c.TrimEnd != 10 {
		t.Errorf("timeline changed before commit: trim end %v", c.TrimEnd)
	}

	end := s.edit(t, http.MethodPost, "/gestures/trim/end", nil)
	if !end.Applied || end.Clip == nil || end.Clip.TrimEnd != 8 {
		t.Fatalf("end = %+v", end)
	}
	if end.State.Gesture != nil {
		t.Error("gesture preview should be cleared after commit")
	}

	undo := s.edit(t, http.MethodPost, "/timeline/undo", nil)
	if c, _, _ := undo.State.Timeline.Find(id); c.TrimEnd != 10 {
		t.Errorf("undo restored trim end %v, want 10", c.TrimEnd)
	}
}

func TestMoveGesture_SwitchesTrack(t *testing.T) {
	s := newTestServer(t)
	drop := s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipB.ID})
	id := drop.Clip.ID

	if begin := s.edit(t, http.MethodPost, "/gestures/move/begin", MoveBeginRequest{ClipID: id}); !begin.Applied {
		t.Fatalf("begin = %+v", begin)
	}
	upd := s.edit(t, http.MethodPost, "/gestures/move/update", DragRequest{DX: 100, DY: 60})
	if upd.Move == nil || upd.Move.Clip.Track != timeline.TrackOverlay || upd.Move.Clip.StartTime != 2 {
		t.Fatalf("update = %+v", upd)
	}

	end := s.edit(t, http.MethodPost, "/gestures/move/end", nil)
	if !end.Applied || end.Clip.Track != timeline.TrackOverlay || end.Clip.StartTime != 2 {
		t.Fatalf("end = %+v", end)
	}
}

func TestMoveGesture_CancelKeepsHistory(t *testing.T) {
	s := newTestServer(t)
	drop := s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipB.ID})

	s.edit(t, http.MethodPost, "/gestures/move/begin", MoveBeginRequest{ClipID: drop.Clip.ID})
	s.edit(t, http.MethodPost, "/gestures/move/update", DragRequest{DX: 200})
	cancel := s.edit(t, http.MethodPost, "/gestures/move/cancel", nil)
	if !cancel.Applied {
		t.Fatalf("cancel = %+v", cancel)
	}
	if c, _, _ := cancel.State.Timeline.Find(drop.Clip.ID); c.StartTime != 0 {
		t.Errorf("cancel moved the clip to %v", c.StartTime)
	}

	// Only the drop is in history.
	s.edit(t, http.MethodPost, "/timeline/undo", nil)
	if undo := s.edit(t, http.MethodPost, "/timeline/undo", nil); undo.Applied {
		t.Error("cancelled move should not add a history entry")
	}
}

func TestTransport(t *testing.T) {
	s := newTestServer(t)

	decode := func(rr *httptest.ResponseRecorder) TransportResponse {
		t.Helper()
		var resp TransportResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return resp
	}

	if resp := decode(s.do(t, http.MethodPost, "/transport/play", nil)); resp.Mode != playback.ModeStopped {
		t.Errorf("play on empty = %v, want stopped", resp.Mode)
	}

	s.edit(t, http.MethodPost, "/selection", SelectRequest{LibraryClipID: s.clipB.ID})
	resp := decode(s.do(t, http.MethodPost, "/transport/toggle", nil))
	if resp.Mode != playback.ModeSourceLoop || resp.Frame.Mode != playback.PreviewLibraryClip {
		t.Errorf("toggle = %+v, want source loop on library clip", resp)
	}

	s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipA.ID})
	resp = decode(s.do(t, http.MethodPost, "/transport/play", nil))
	if resp.Mode != playback.ModeTimeline {
		t.Errorf("play with a timeline = %v, want timeline", resp.Mode)
	}

	resp = decode(s.do(t, http.MethodPost, "/transport/pause", nil))
	if resp.Mode != playback.ModeStopped || s.session.Playing() {
		t.Errorf("pause = %+v", resp)
	}

	// The library selection owns the preview until it is cleared.
	resp = decode(s.do(t, http.MethodGet, "/transport/frame", nil))
	if resp.Frame.Mode != playback.PreviewLibraryClip {
		t.Errorf("frame with library selection = %+v", resp.Frame)
	}
	s.edit(t, http.MethodDelete, "/selection", nil)
	resp = decode(s.do(t, http.MethodGet, "/transport/frame", nil))
	if resp.Frame.Mode != playback.PreviewTimeline || resp.Frame.ActiveClipSourceID != s.clipA.ID {
		t.Errorf("frame = %+v", resp.Frame)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	if rr := s.do(t, http.MethodPost, "/export", ExportRequest{ProjectName: "Cut"}); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty timeline status = %d, want 422", rr.Code)
	}

	s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipA.ID})
	s.edit(t, http.MethodPost, "/timeline/clips", DropRequest{SourceID: s.clipB.ID, Track: "overlay", XPx: 100})

	rr := s.do(t, http.MethodPost, "/export", ExportRequest{ProjectName: "Cut"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp export.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ClipCount != 2 || len(resp.OutputPaths) != 2 {
		t.Fatalf("response = %+v", resp)
	}
	for _, p := range resp.OutputPaths {
		if filepath.Dir(p) != s.cfg.ExportDir {
			t.Errorf("output %q not in export dir", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("output %q: %v", p, err)
		}
	}

	if rr := s.do(t, http.MethodPost, "/export", ExportRequest{OutputDir: "relative/dir"}); rr.Code != http.StatusBadRequest {
		t.Errorf("relative output dir status = %d, want 400", rr.Code)
	}
}

func TestMedia(t *testing.T) {
	s := newTestServer(t)

	media := func(path, remote, rng string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+testToken)
		req.RemoteAddr = remote
		if rng != "" {
			req.Header.Set("Range", rng)
		}
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		return rr
	}

	rr := media("/media/"+s.clipA.ID, "127.0.0.1:50000", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "aaaaaaaaaa" {
		t.Errorf("full read = %d %q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("Content-Type = %q", ct)
	}

	rr = media("/media/"+s.clipA.ID, "[::1]:50000", "bytes=2-4")
	if rr.Code != http.StatusPartialContent || rr.Body.String() != "aaa" {
		t.Errorf("range read = %d %q", rr.Code, rr.Body.String())
	}
	if cr := rr.Header().Get("Content-Range"); cr != "bytes 2-4/10" {
		t.Errorf("Content-Range = %q", cr)
	}

	if rr := media("/media/"+s.clipA.ID, "192.0.2.10:50000", ""); rr.Code != http.StatusForbidden {
		t.Errorf("remote status = %d, want 403", rr.Code)
	}
	if rr := media("/media/missing", "127.0.0.1:50000", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown clip status = %d, want 404", rr.Code)
	}
}
