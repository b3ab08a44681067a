package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/timeline"
)

// edit builds the response for an editing command. Rejections are logged by
// the session and reported with applied=false.
func edit(s *editor.Session, err error) EditResponse {
	resp := EditResponse{Applied: err == nil, State: s.State()}
	if err != nil {
		resp.Reason = err.Error()
	}
	return resp
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := cfg.Session.State()
		WriteJSON(w, http.StatusOK, TimelineResponse{State: st, Frame: cfg.Transport.FrameFor(st)})
	}
}

func dropHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DropRequest
		if !decodeBody(w, r, &req) {
			return
		}
		track, err := parseTrack(req.Track)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		clip, err := cfg.Session.DropClip(req.SourceID, track, req.XPx)
		resp := edit(cfg.Session, err)
		if err == nil {
			resp.Clip = &clip
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Session.DeleteClip(chi.URLParam(r, "id"))
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}

func deleteSelectedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Session.DeleteSelected()
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}

func splitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		left, right, err := cfg.Session.Split()
		resp := edit(cfg.Session, err)
		if err == nil {
			resp.Clips = []timeline.Clip{left, right}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := EditResponse{Applied: cfg.Session.Undo()}
		if !resp.Applied {
			resp.Reason = "nothing to undo"
		}
		resp.State = cfg.Session.State()
		WriteJSON(w, http.StatusOK, resp)
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := EditResponse{Applied: cfg.Session.Redo()}
		if !resp.Applied {
			resp.Reason = "nothing to redo"
		}
		resp.State = cfg.Session.State()
		WriteJSON(w, http.StatusOK, resp)
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if !decodeBody(w, r, &req) {
			return
		}
		cfg.Transport.Seek(req.Time)
		WriteJSON(w, http.StatusOK, edit(cfg.Session, nil))
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var err error
		switch {
		case req.TimelineClipID != "" && req.LibraryClipID != "":
			WriteError(w, http.StatusBadRequest, "select either a timeline clip or a library clip", "BAD_REQUEST")
			return
		case req.TimelineClipID != "":
			err = cfg.Session.SelectTimelineClip(req.TimelineClipID)
		case req.LibraryClipID != "":
			err = cfg.Session.SelectLibraryClip(req.LibraryClipID)
		default:
			cfg.Session.ClearSelection()
		}
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}

func clearSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.ClearSelection()
		WriteJSON(w, http.StatusOK, edit(cfg.Session, nil))
	}
}

func trimBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimBeginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		edge, err := parseEdge(req.Edge)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		// Trimming pauses playback; stop the loop before the session does.
		cfg.Transport.Pause()
		err = cfg.Session.BeginTrim(req.ClipID, edge)
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}

func trimUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := cfg.Session.DragTrim(req.DX)
		resp := edit(cfg.Session, err)
		if err == nil {
			resp.Trim = TrimToPreview(res)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func trimEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := cfg.Session.EndTrim()
		resp := edit(cfg.Session, err)
		if err == nil {
			resp.Clip = &clip
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func trimCancelHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Session.CancelTrim()
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}

func moveBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveBeginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		err := cfg.Session.BeginMove(req.ClipID)
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}

func moveUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragRequest
		if !decodeBody(w, r, &req) {
			return
		}
		cand, err := cfg.Session.DragMove(req.DX, req.DY)
		resp := edit(cfg.Session, err)
		if err == nil {
			resp.Move = MoveToPreview(cand)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func moveEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := cfg.Session.EndMove()
		resp := edit(cfg.Session, err)
		if err == nil {
			resp.Clip = &clip
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func moveCancelHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Session.CancelMove()
		WriteJSON(w, http.StatusOK, edit(cfg.Session, err))
	}
}
