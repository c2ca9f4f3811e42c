package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
	"github.com/admetra/admetra/internal/repository"
	"github.com/admetra/admetra/internal/server/middleware"
)

// MetricsHandler serves the metrics read endpoints. The file and database
// backends answer the same query contract; the default endpoint delegates
// to whichever backend is configured.
type MetricsHandler struct {
	defaultRepo repository.MetricsRepository
	csvRepo     repository.MetricsRepository
	dbRepo      repository.MetricsRepository
	logger      *slog.Logger
}

func NewMetricsHandler(defaultRepo, csvRepo, dbRepo repository.MetricsRepository, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		defaultRepo: defaultRepo,
		csvRepo:     csvRepo,
		dbRepo:      dbRepo,
		logger:      logger,
	}
}

// GetMetrics serves the configured default backend.
// GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.defaultRepo, "default")
}

// GetMetricsCSV always reads from the file backend.
// GET /metrics/csv
func (h *MetricsHandler) GetMetricsCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.csvRepo, "csv")
}

// GetMetricsDB always reads from the database backend.
// GET /metrics/db
func (h *MetricsHandler) GetMetricsDB(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.dbRepo, "db")
}

func (h *MetricsHandler) serve(w http.ResponseWriter, r *http.Request, repo repository.MetricsRepository, backend string) {
	if repo == nil {
		writeError(w, http.StatusNotImplemented, "Backend not configured")
		return
	}

	filter, err := query.ParseFilter(r.URL.Query())
	if err != nil {
		writeValidationError(w, err)
		return
	}

	role := model.RoleStandard
	if p := middleware.GetPrincipal(r.Context()); p != nil {
		role = p.Role
	}

	start := time.Now()
	rows, err := repo.GetMetrics(r.Context(), filter, role)
	if err != nil {
		h.logger.Error("metrics query failed",
			"backend", backend,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	took := time.Since(start)

	if rows == nil {
		rows = []map[string]interface{}{}
	}

	writeJSON(w, http.StatusOK, model.MetricsResponse{
		DataPreview: rows,
		Meta: &model.ResponseMeta{
			Count:  len(rows),
			Limit:  filter.Limit,
			Offset: filter.Offset,
			TookMs: float64(took.Microseconds()) / 1000.0,
		},
	})
}
