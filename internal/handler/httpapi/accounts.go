package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/alpadrive/server/internal/service"
)

type signupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	uid, err := h.accounts.Signup(r.Context(), req.Name, req.Username, req.Password, req.Email)
	if err != nil {
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": fmt.Sprintf("Another user already exists with the %s %s", conflict.Field, conflict.Value),
			})
			return
		}
		storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": "Successfully signed up user",
		"uid":     uid,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}

	profile, err := h.accounts.Login(r.Context(), req.Username, req.Password, req.Email)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "User with this username wasn't found on this server",
		})
	case errors.Is(err, service.ErrWrongCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Wrong credentials",
		})
	case err != nil:
		storageError(w, err)
	default:
		writeJSON(w, http.StatusOK, profile)
	}
}

type statusRequest struct {
	Systemstat *bool `json:"systemstat"`
}

// Status reports presence counters, plus host memory when asked.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(r, &req) {
		parseError(w)
		return
	}
	if req.Systemstat == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Request is not in a supported format. Make sure you have included the flag for systemstat.",
		})
		return
	}

	writeJSON(w, http.StatusOK, h.status.Snapshot(*req.Systemstat))
}
