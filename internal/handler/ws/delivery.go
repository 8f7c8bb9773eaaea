package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alpadrive/server/config"
	"github.com/alpadrive/server/internal/adapter/pubsub"
	"github.com/alpadrive/server/internal/domain/lobby"
	"github.com/alpadrive/server/internal/domain/model"
	"github.com/alpadrive/server/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Delivery holds the three upgrade routes. Auth happens over plain HTTP
// first; only accepted requests are upgraded and handed to an Endpoint.
type Delivery struct {
	accounts   service.Accounter
	pairer     service.Pairer
	lobby      lobby.Lobbier
	dispatcher pubsub.SampleDispatcher
	logger     *slog.Logger

	mailboxSize int
	upgrader    websocket.Upgrader
}

func NewDelivery(
	accounts service.Accounter,
	pairer service.Pairer,
	lb lobby.Lobbier,
	dispatcher pubsub.SampleDispatcher,
	cfg *config.Config,
	logger *slog.Logger,
) *Delivery {
	return &Delivery{
		accounts:    accounts,
		pairer:      pairer,
		lobby:       lb,
		dispatcher:  dispatcher,
		logger:      logger,
		mailboxSize: cfg.Lobby.MailboxSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Vehicles and apps connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (d *Delivery) RegisterRoutes(mux *chi.Mux) {
	mux.Get("/join/vehicle/{uid}", d.JoinVehicle)
	mux.Get("/join/user/{vid}/{uid}", d.JoinUser)
	mux.Get("/pair/{vid}/{uid}", d.Pair)
}

func (d *Delivery) reject(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// open upgrades the request and runs an endpoint on it. The endpoint
// lives on its own goroutine for the duration of the socket.
func (d *Delivery) open(w http.ResponseWriter, r *http.Request, room string, sender model.Sender) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		d.logger.Warn("upgrade failed", "room", room, "err", err)
		return
	}
	connID := uuid.NewString()
	ep := NewEndpoint(connID, room, sender, conn, d.lobby, d.dispatcher, d.logger, d.mailboxSize)
	d.logger.Info("socket opened", "conn_id", connID, "room", room, "kind", int(sender.Kind))
	go ep.Run()
}

// JoinVehicle lets a vehicle claim its own room as admin.
func (d *Delivery) JoinVehicle(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	if _, err := d.accounts.Vehicle(r.Context(), uid); err != nil {
		if errors.Is(err, service.ErrVehicleNotFound) {
			d.reject(w, http.StatusNotFound, map[string]string{
				"error": "There is no vehicle with the supplied ID. Consider registering it first at /vehicle/register.",
			})
			return
		}
		d.reject(w, http.StatusInternalServerError, map[string]string{
			"error":      "The server faced an internal error trying to create a room.",
			"stacktrace": fmt.Sprintf("%+v", err),
		})
		return
	}

	d.open(w, r, uid, model.Sender{Kind: model.SenderAdmin})
}

// JoinUser admits a paired user into a vehicle's room.
func (d *Delivery) JoinUser(w http.ResponseWriter, r *http.Request) {
	vid := chi.URLParam(r, "vid")
	uid := chi.URLParam(r, "uid")

	if _, _, err := d.accounts.Authorize(r.Context(), uid, vid); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			d.reject(w, http.StatusNotFound, map[string]string{
				"error": "There is no user with the supplied ID. Consider signing up first.",
			})
		case errors.Is(err, service.ErrVehicleNotFound):
			d.reject(w, http.StatusNotFound, map[string]string{
				"error": "There is no vehicle with the supplied ID. Consider registering it first.",
			})
		case errors.Is(err, service.ErrNoAccess):
			d.reject(w, http.StatusUnauthorized, map[string]string{
				"error": "This user has no access to the vehicle. Securely link it first.",
			})
		default:
			d.reject(w, http.StatusInternalServerError, map[string]string{
				"error":      "The server faced an internal error trying to create a room.",
				"stacktrace": fmt.Sprintf("%+v", err),
			})
		}
		return
	}

	d.open(w, r, vid, model.Sender{Kind: model.SenderClient, UID: uid})
}

// Pair runs the handshake and opens a transient endpoint that carries
// the confirmation into the vehicle's room before closing itself.
func (d *Delivery) Pair(w http.ResponseWriter, r *http.Request) {
	vid := chi.URLParam(r, "vid")
	uid := chi.URLParam(r, "uid")
	initial := r.URL.Query().Get("initial") == "true"

	payload, err := d.pairer.Pair(r.Context(), uid, vid, initial)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeExpired):
			d.reject(w, http.StatusUnauthorized, map[string]string{
				"error":      "This code has expired",
				"suggestion": "Use the code generated by the app.",
			})
		case errors.Is(err, service.ErrUserNotFound):
			d.reject(w, http.StatusNotFound, map[string]string{
				"error":      "There is no user with the specified ID.",
				"suggestion": "Sign up the user at /signup",
			})
		case errors.Is(err, service.ErrVehicleNotFound):
			d.reject(w, http.StatusNotFound, map[string]string{
				"error":      "There is no vehicle with the specified ID.",
				"suggestion": "Register the vehicle at /vehicle/register",
			})
		default:
			d.reject(w, http.StatusInternalServerError, map[string]string{
				"error":      "The server faced an internal error trying to create a room.",
				"stacktrace": fmt.Sprintf("%+v", err),
			})
		}
		return
	}

	d.open(w, r, vid, model.Sender{Kind: model.SenderPair, UID: uid, Payload: payload})
}
