package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alpadrive/server/internal/domain/model"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Profile is the hydrated view returned on login.
type Profile struct {
	UID      primitive.ObjectID `json:"uid"`
	Name     string             `json:"name"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Vehicles []model.Vehicle    `json:"vehicles"`
}

// Accounter is the account/vehicle registry consumed by the HTTP layer
// and the join-user upgrade flow.
type Accounter interface {
	Signup(ctx context.Context, name, username, password, email string) (primitive.ObjectID, error)
	Login(ctx context.Context, username, password, email string) (*Profile, error)
	Refresh(ctx context.Context, uid string) ([]model.Vehicle, error)
	RegisterVehicle(ctx context.Context, company, vmodel string) (primitive.ObjectID, error)
	EditVehicle(ctx context.Context, id, company, vmodel string) error
	Vehicle(ctx context.Context, vid string) (*model.Vehicle, error)
	// Authorize resolves a (user, vehicle) pair and checks the user's
	// vehicles list grants access.
	Authorize(ctx context.Context, uid, vid string) (*model.User, *model.Vehicle, error)
}

type AccountService struct {
	users    UserStore
	vehicles VehicleStore
	logger   *slog.Logger

	// Hot vehicle documents; registrations are rare and edits
	// invalidate, so cache-aside is safe here.
	cache *lru.Cache[string, model.Vehicle]
}

var _ Accounter = (*AccountService)(nil)

func NewAccountService(users UserStore, vehicles VehicleStore, logger *slog.Logger) *AccountService {
	cache, _ := lru.New[string, model.Vehicle](4096)
	return &AccountService{
		users:    users,
		vehicles: vehicles,
		logger:   logger,
		cache:    cache,
	}
}

func (s *AccountService) Signup(ctx context.Context, name, username, password, email string) (primitive.ObjectID, error) {
	// Two lookups instead of one $or so the conflict response can name
	// the exact field that collided.
	if existing, err := s.users.FindByEmail(ctx, email); err == nil {
		return primitive.NilObjectID, &ConflictError{Field: "email", Value: existing.Email}
	} else if !errors.Is(err, ErrNotFound) {
		return primitive.NilObjectID, fmt.Errorf("signup email lookup: %w", err)
	}

	if existing, err := s.users.FindByUsername(ctx, username); err == nil {
		return primitive.NilObjectID, &ConflictError{Field: "username", Value: existing.Username}
	} else if !errors.Is(err, ErrNotFound) {
		return primitive.NilObjectID, fmt.Errorf("signup username lookup: %w", err)
	}

	uid, err := s.users.Insert(ctx, &model.User{
		Name:     name,
		Username: username,
		Password: password,
		Email:    email,
		Vehicles: []primitive.ObjectID{},
	})
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("signup insert: %w", err)
	}
	s.logger.Info("user signed up", "uid", uid.Hex(), "username", username)
	return uid, nil
}

func (s *AccountService) Login(ctx context.Context, username, password, email string) (*Profile, error) {
	user, err := s.users.FindByLogin(ctx, username, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	// Credentials are opaque equality-comparable strings.
	if user.Password != password {
		return nil, ErrWrongCredentials
	}

	vehicles, err := s.vehicles.FindByIDs(ctx, user.Vehicles)
	if err != nil {
		// The profile is still useful without the hydrated list.
		s.logger.Warn("login vehicle hydration failed", "uid", user.ID.Hex(), "err", err)
		vehicles = []model.Vehicle{}
	}

	return &Profile{
		UID:      user.ID,
		Name:     user.Name,
		Username: user.Username,
		Email:    user.Email,
		Vehicles: vehicles,
	}, nil
}

func (s *AccountService) Refresh(ctx context.Context, uid string) ([]model.Vehicle, error) {
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}
	vehicles, err := s.vehicles.FindByIDs(ctx, user.Vehicles)
	if err != nil {
		return nil, fmt.Errorf("refresh hydration: %w", err)
	}
	return vehicles, nil
}

func (s *AccountService) RegisterVehicle(ctx context.Context, company, vmodel string) (primitive.ObjectID, error) {
	id, err := s.vehicles.Insert(ctx, &model.Vehicle{Company: company, Model: vmodel})
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("register vehicle: %w", err)
	}
	s.logger.Info("vehicle registered", "vid", id.Hex(), "company", company, "model", vmodel)
	return id, nil
}

func (s *AccountService) EditVehicle(ctx context.Context, vid, company, vmodel string) error {
	id, err := primitive.ObjectIDFromHex(vid)
	if err != nil {
		return ErrVehicleNotFound
	}
	modified, err := s.vehicles.Update(ctx, id, company, vmodel)
	if err != nil {
		return fmt.Errorf("edit vehicle: %w", err)
	}
	if modified == 0 {
		return ErrVehicleNotFound
	}
	s.cache.Remove(vid)
	return nil
}

// Vehicle resolves a vehicle by hex id through the LRU cache.
func (s *AccountService) Vehicle(ctx context.Context, vid string) (*model.Vehicle, error) {
	if cached, ok := s.cache.Get(vid); ok {
		return &cached, nil
	}
	id, err := primitive.ObjectIDFromHex(vid)
	if err != nil {
		return nil, ErrVehicleNotFound
	}
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vehicle lookup: %w", err)
	}
	s.cache.Add(vid, *vehicle)
	return vehicle, nil
}

func (s *AccountService) Authorize(ctx context.Context, uid, vid string) (*model.User, *model.Vehicle, error) {
	userID, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}

	// Both lookups complete or fail together.
	var (
		user    *model.User
		vehicle *model.Vehicle
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.FindByID(gCtx, userID)
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		user = u
		return err
	})
	g.Go(func() error {
		v, err := s.Vehicle(gCtx, vid)
		vehicle = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, owned := range user.Vehicles {
		if owned == vehicle.ID {
			return user, vehicle, nil
		}
	}
	return nil, nil, ErrNoAccess
}
