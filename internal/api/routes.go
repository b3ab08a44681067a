package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/config"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/clips", listClipsHandler(cfg))
		r.Get("/clips/{id}", getClipHandler(cfg))
		r.Post("/clips/import", importHandler(cfg))
		r.Post("/clips/folders", importFolderHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))

		r.Get("/timeline", timelineHandler(cfg))
		r.Post("/timeline/clips", dropHandler(cfg))
		r.Delete("/timeline/clips/{id}", deleteClipHandler(cfg))
		r.Post("/timeline/split", splitHandler(cfg))
		r.Post("/timeline/delete", deleteSelectedHandler(cfg))
		r.Post("/timeline/undo", undoHandler(cfg))
		r.Post("/timeline/redo", redoHandler(cfg))
		r.Post("/timeline/seek", seekHandler(cfg))
		r.Post("/selection", selectHandler(cfg))
		r.Delete("/selection", clearSelectionHandler(cfg))

		r.Route("/gestures", func(r chi.Router) {
			r.Post("/trim/begin", trimBeginHandler(cfg))
			r.Post("/trim/update", trimUpdateHandler(cfg))
			r.Post("/trim/end", trimEndHandler(cfg))
			r.Post("/trim/cancel", trimCancelHandler(cfg))
			r.Post("/move/begin", moveBeginHandler(cfg))
			r.Post("/move/update", moveUpdateHandler(cfg))
			r.Post("/move/end", moveEndHandler(cfg))
			r.Post("/move/cancel", moveCancelHandler(cfg))
		})

		r.Post("/transport/play", playHandler(cfg))
		r.Post("/transport/pause", pauseHandler(cfg))
		r.Post("/transport/toggle", toggleHandler(cfg))
		r.Get("/transport/frame", frameHandler(cfg))

		r.Post("/export", exportHandler(cfg))

		if cfg.Hub != nil {
			r.Get("/ws", cfg.Hub.ServeWS)
		}

		r.Group(func(r chi.Router) {
			r.Use(LoopbackGuard())
			r.Get("/media/{id}", mediaHandler(cfg))
			r.Head("/media/{id}", mediaHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		clips, _ := cfg.Catalog.ListClips(ctx)
		jobs, _ := cfg.Catalog.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == catalog.JobStatusRunning {
				state = "importing"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == catalog.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		resp := StatusResponse{
			State:       state,
			LastError:   lastError,
			ClipsCount:  len(clips),
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		}
		if cfg.Transport != nil {
			resp.Transport = cfg.Transport.Mode()
		}
		if cfg.Session != nil {
			resp.TimelineClips = cfg.Session.Timeline().Len()
		}
		if cfg.Doctor != nil {
			resp.Dependencies = cfg.Doctor.Get(ctx)
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, err := cfg.Catalog.ListClips(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list clips", "INTERNAL_ERROR")
			return
		}

		resp := ClipsResponse{Clips: make([]ClipResponse, len(clips))}
		for i, c := range clips {
			resp.Clips[i] = ClipToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := cfg.Catalog.GetClip(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if clip == nil {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ClipToResponse(clip))
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Catalog.Import(r.Context(), req.Path)
		if err != nil {
			code := "BAD_REQUEST"
			status := http.StatusBadRequest
			if errors.Is(err, catalog.ErrAlreadyImported) {
				code = "ALREADY_IMPORTED"
				status = http.StatusConflict
			}
			WriteError(w, status, err.Error(), code)
			return
		}
		if cfg.Runner != nil {
			cfg.Runner.Wake()
		}

		WriteJSON(w, http.StatusAccepted, ImportResponse{JobID: job.ID})
	}
}

func importFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Catalog.ImportFolder(r.Context(), req.Path)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if cfg.Runner != nil {
			cfg.Runner.Wake()
		}

		WriteJSON(w, http.StatusAccepted, ImportResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Catalog.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Catalog.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		clip, err := cfg.Catalog.GetClip(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if clip == nil {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}

		if err := cfg.Media.ServeSource(w, r, clip.Path); err != nil {
			cfg.Logger.Error("media serve error", "error", err, "source_clip_id", id)
		}
	}
}

// decodeBody reads a JSON request body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}
