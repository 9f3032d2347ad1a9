package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sheetflow/excel-etl/internal/service"
)

type handler struct {
	log *slog.Logger

	ps *service.PipelineService
}

func NewRouter(log *slog.Logger, ps *service.PipelineService) http.Handler {
	h := handler{
		log: log,

		ps: ps,
	}

	r := mux.NewRouter()

	r.HandleFunc("/api/v1/healthz", h.healthz).Methods("GET")
	r.HandleFunc("/api/v1/pipeline/validate", h.validatePipeline).Methods("POST")
	r.HandleFunc("/api/v1/pipeline/run", h.runPipeline).Methods("POST")

	r.Use(Recovery(log), RequestLogging(log))

	return r
}
