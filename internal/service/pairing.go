package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pairer runs the one-shot handshake that authorizes a user for a
// vehicle. The returned payload is the confirmation body the transient
// endpoint delivers into the vehicle's room.
type Pairer interface {
	Pair(ctx context.Context, uid, vid string, initial bool) (payload string, err error)
}

type PairingService struct {
	users    UserStore
	vehicles VehicleStore
	logger   *slog.Logger
}

var _ Pairer = (*PairingService)(nil)

func NewPairingService(users UserStore, vehicles VehicleStore, logger *slog.Logger) *PairingService {
	return &PairingService{users: users, vehicles: vehicles, logger: logger}
}

// pairConfirmation is the JSON body delivered to the vehicle and echoed
// as the close reason of the transient endpoint.
type pairConfirmation struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
	VID     string `json:"vid"`
}

func (s *PairingService) Pair(ctx context.Context, uid, vid string, initial bool) (string, error) {
	userID, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return "", ErrUserNotFound
	}
	vehicleID, err := primitive.ObjectIDFromHex(vid)
	if err != nil {
		return "", ErrVehicleNotFound
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pair user lookup: %w", err)
	}

	// First-use codes must not rebind an already-paired vehicle. A
	// failed count is treated as "taken", erring on the safe side.
	taken := true
	if count, err := s.users.CountWithVehicle(ctx, vehicleID); err == nil {
		taken = count > 0
	}
	if initial && taken {
		return "", ErrCodeExpired
	}

	if _, err := s.vehicles.FindByID(ctx, vehicleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrVehicleNotFound
		}
		return "", fmt.Errorf("pair vehicle lookup: %w", err)
	}

	// Dedupe before prepending so the list holds the id at most once
	// and the freshest pair always sits at position 0.
	list := make([]primitive.ObjectID, 0, len(user.Vehicles)+1)
	list = append(list, vehicleID)
	for _, owned := range user.Vehicles {
		if owned != vehicleID {
			list = append(list, owned)
		}
	}

	outcome := "Pair successful"
	if !sameIDs(list, user.Vehicles) {
		modified, err := s.users.SetVehicles(ctx, user.ID, list)
		switch {
		case err != nil:
			outcome = fmt.Sprintf("Database reported an error: %v", err)
		case modified == 0:
			outcome = "Database had an unknown error"
		}
	}
	s.logger.Info("pair completed", "uid", uid, "vid", vid, "initial", initial, "outcome", outcome)

	payload, _ := json.Marshal(pairConfirmation{Message: outcome, UID: uid, VID: vid})
	return string(payload), nil
}

func sameIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
