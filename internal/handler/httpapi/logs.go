package httpapi

import (
	"errors"
	"net/http"

	"github.com/alpadrive/server/internal/service"
)

type dailyLogRequest struct {
	VID  string `json:"vid"`
	Date string `json:"date"`
}

// DailyLogs returns one day's summary for a vehicle.
func (h *Handler) DailyLogs(w http.ResponseWriter, r *http.Request) {
	var req dailyLogRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	log, err := h.logs.Daily(r.Context(), req.VID, req.Date)
	switch {
	case errors.Is(err, service.ErrNoLogs) || errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "No logs were found for this vehicle on the given date",
		})
	case err != nil:
		storageError(w, err)
	default:
		writeJSON(w, http.StatusOK, log)
	}
}

type periodicLogRequest struct {
	VID   string `json:"vid"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// PeriodicLogs reduces the logs between two dates into one rollup.
func (h *Handler) PeriodicLogs(w http.ResponseWriter, r *http.Request) {
	var req periodicLogRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	rollup, err := h.logs.Periodic(r.Context(), req.VID, req.Start, req.End)
	switch {
	case errors.Is(err, service.ErrNoLogs):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "No logs were found for this vehicle in the given period",
		})
	case err != nil:
		storageError(w, err)
	default:
		writeJSON(w, http.StatusOK, rollup)
	}
}

type overallLogRequest struct {
	VID string `json:"vid"`
}

// OverallLogs reduces the vehicle's entire history.
func (h *Handler) OverallLogs(w http.ResponseWriter, r *http.Request) {
	var req overallLogRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	rollup, err := h.logs.Overall(r.Context(), req.VID)
	switch {
	case errors.Is(err, service.ErrNoLogs):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "No logs were found for this vehicle",
		})
	case err != nil:
		storageError(w, err)
	default:
		writeJSON(w, http.StatusOK, rollup)
	}
}
