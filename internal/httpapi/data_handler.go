package httpapi

import (
	"net/http"

	"github.com/francesco74/sonde/internal/service"
	"github.com/francesco74/sonde/internal/session"

	"go.uber.org/zap"
)

// DataHandler serves the permission-scoped read API: the practice tree
// and the time-series endpoints.
type DataHandler struct {
	tree   service.TreeService
	series service.SeriesService
	logger *zap.Logger
}

func NewDataHandler(tree service.TreeService, series service.SeriesService, logger *zap.Logger) *DataHandler {
	return &DataHandler{tree: tree, series: series, logger: logger}
}

// GetTree returns the macrogroup/practice listing visible to the session's
// permission snapshot.
func (h *DataHandler) GetTree(w http.ResponseWriter, r *http.Request, state session.State) {
	h.logger.Info("Fetching practice tree", zap.String("username", state.Username))

	tree, err := h.tree.BuildTree(r.Context(), state.Permissions)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ok(tree))
}

// GetData returns per-sensor series for an explicit date range.
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request, state session.State) {
	q := r.URL.Query()
	practiceName := q.Get("practice_id")
	startDate := q.Get("start_date")
	endDate := q.Get("end_date")
	if practiceName == "" || startDate == "" || endDate == "" {
		writeJSON(w, http.StatusBadRequest, fail(msgMissingParameters))
		return
	}

	series, err := h.series.Fetch(r.Context(), practiceName, startDate, endDate, state.Permissions)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okData(series))
}

// GetLatestData returns the trailing 15-day window for the initial load.
func (h *DataHandler) GetLatestData(w http.ResponseWriter, r *http.Request, state session.State) {
	practiceName := r.URL.Query().Get("practice_id")
	if practiceName == "" {
		writeJSON(w, http.StatusBadRequest, fail(msgMissingPracticeID))
		return
	}

	latest, err := h.series.FetchLatest(r.Context(), practiceName, state.Permissions)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okData(latest))
}
