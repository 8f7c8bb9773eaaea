package httpapi

import (
	"errors"
	"net/http"

	"github.com/alpadrive/server/internal/service"
)

type vehicleRequest struct {
	Company string `json:"company"`
	Model   string `json:"model"`
}

func (h *Handler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	id, err := h.accounts.RegisterVehicle(r.Context(), req.Company, req.Model)
	if err != nil {
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": "Vehicle was registered",
		"id":      id,
	})
}

type refreshRequest struct {
	UID string `json:"uid"`
}

// RefreshVehicles rehydrates the caller's vehicle list.
func (h *Handler) RefreshVehicles(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	vehicles, err := h.accounts.Refresh(r.Context(), req.UID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "User with this ID wasn't found on this server",
		})
	case err != nil:
		storageError(w, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(vehicles),
			"vehicles": vehicles,
		})
	}
}

type editVehicleRequest struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Model   string `json:"model"`
}

func (h *Handler) EditVehicle(w http.ResponseWriter, r *http.Request) {
	var req editVehicleRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	err := h.accounts.EditVehicle(r.Context(), req.ID, req.Company, req.Model)
	switch {
	case errors.Is(err, service.ErrVehicleNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "There is no vehicle with the specified ID.",
		})
	case err != nil:
		storageError(w, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"success": "Vehicle details were updated",
		})
	}
}
