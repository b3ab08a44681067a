package api

import (
	"errors"
	"net/http"

	"github.com/framecut/framecut/internal/export"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if !decodeBody(w, r, &req) {
			return
		}

		outputDir := req.OutputDir
		if outputDir == "" {
			outputDir = cfg.ExportDir
		}
		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = cfg.FrameRate
		}

		clips, unresolved := cfg.Session.ExportList()
		resp, err := cfg.Exporter.Export(clips, unresolved, export.Request{
			ProjectName: req.ProjectName,
			FrameRate:   frameRate,
			OutputDir:   outputDir,
		})
		switch {
		case errors.Is(err, export.ErrInvalidOutputDir):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		case errors.Is(err, export.ErrNothingToExport):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NOTHING_TO_EXPORT")
			return
		case err != nil:
			cfg.Logger.Error("export failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}
