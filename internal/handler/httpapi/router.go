package httpapi

import (
	"log/slog"

	"github.com/alpadrive/server/internal/service"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	accounts service.Accounter
	logs     service.LogQuerier
	status   service.Statuser
	logger   *slog.Logger
}

func NewHandler(accounts service.Accounter, logs service.LogQuerier, status service.Statuser, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logs: logs, status: status, logger: logger}
}

func (h *Handler) RegisterRoutes(mux *chi.Mux) {
	// Landing surface.
	mux.Get("/", h.serveAsset("static/index.html", "text/html; charset=utf-8"))
	mux.Get("/landing/banner", h.serveAsset("static/banner.svg", "image/svg+xml"))
	mux.Get("/landing/icons/title", h.serveAsset("static/title.svg", "image/svg+xml"))
	mux.Get("/landing/icons/social", h.serveAsset("static/social.svg", "image/svg+xml"))

	// Accounts.
	mux.Post("/signup", h.Signup)
	mux.Post("/login", h.Login)
	mux.Post("/status", h.Status)

	// Vehicles.
	mux.Post("/vehicle/register", h.RegisterVehicle)
	mux.Post("/vehicle/refresh", h.RefreshVehicles)
	mux.Post("/vehicle/edit", h.EditVehicle)

	// Telemetry queries.
	mux.Post("/logs/daily", h.DailyLogs)
	mux.Post("/logs/periodic", h.PeriodicLogs)
	mux.Post("/logs/overall", h.OverallLogs)

	h.logger.Info("http api routes registered")
}
