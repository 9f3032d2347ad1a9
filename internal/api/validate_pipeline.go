package api

import (
	"net/http"

	"github.com/sheetflow/excel-etl/internal/models"
)

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (h *handler) validatePipeline(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseRequest[models.PipelineConfig](w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ps.ValidatePipeline(*cfg); err != nil {
		jsonResponse(w, http.StatusUnprocessableEntity, &validateResponse{
			Valid: false,
			Error: err.Error(),
		})
		return
	}

	jsonResponse(w, http.StatusOK, &validateResponse{Valid: true})
}
