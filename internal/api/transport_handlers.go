package api

import (
	"net/http"

	"github.com/framecut/framecut/internal/playback"
)

func transportResponse(cfg ServerConfig, mode playback.Mode) TransportResponse {
	return TransportResponse{Mode: mode, Frame: cfg.Transport.Frame()}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, transportResponse(cfg, cfg.Transport.Play()))
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Transport.Pause()
		WriteJSON(w, http.StatusOK, transportResponse(cfg, cfg.Transport.Mode()))
	}
}

func toggleHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, transportResponse(cfg, cfg.Transport.Toggle()))
	}
}

func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, transportResponse(cfg, cfg.Transport.Mode()))
	}
}
