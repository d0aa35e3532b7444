package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// DataHandler handles data catalogue endpoints.
type DataHandler struct {
	provider backtest.SnapshotProvider
	logger   *logger.Logger
}

// NewDataHandler creates a new data handler.
func NewDataHandler(provider backtest.SnapshotProvider, log *logger.Logger) *DataHandler {
	return &DataHandler{provider: provider, logger: log}
}

// GetFields returns the recognized data field names.
// GET /api/data/fields
func (h *DataHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	fields := backtest.KnownDataFields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, string(f))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields": names,
	})
}

// GetRange returns the available date range for one field.
// GET /api/data/range/{field}
func (h *DataHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	field := backtest.DataField(mux.Vars(r)["field"])

	min, max, err := h.provider.DataRange(r.Context(), field)
	if err != nil {
		status := http.StatusInternalServerError
		if backtest.IsKind(err, backtest.KindDataUnavailable) {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"field":    string(field),
		"min_date": min.Format(backtest.DateLayout),
		"max_date": max.Format(backtest.DateLayout),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
