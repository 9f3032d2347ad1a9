package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sheetflow/excel-etl/internal/models"
)

func (h *handler) runPipeline(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseRequest[models.PipelineConfig](w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.ps.RunPipeline(r.Context(), *cfg)
	if err != nil {
		var cfgErr models.PipelineConfigError
		switch {
		case errors.As(err, &cfgErr):
			jsonError(w, http.StatusUnprocessableEntity, cfgErr.Error())
		case errors.Is(err, models.ErrNoSourceData):
			jsonError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error("pipeline run failed", slog.Any("error", err))
			jsonError(w, http.StatusInternalServerError, "pipeline run failed")
		}
		return
	}

	jsonResponse(w, http.StatusOK, report)
}
