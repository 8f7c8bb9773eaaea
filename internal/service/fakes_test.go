package service

import (
	"context"
	"errors"
	"sync"

	"github.com/alpadrive/server/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stores backing the service tests. They honor the same
// sentinel contract as the mongo repositories.

type memUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*model.User

	setVehiclesErr error
	modifiedZero   bool
	countErr       error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[primitive.ObjectID]*model.User)}
}

func (s *memUserStore) add(user model.User) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = &user
	return user.ID
}

func (s *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *memUserStore) findWhere(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findWhere(func(u *model.User) bool { return u.Email == email })
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return s.findWhere(func(u *model.User) bool { return u.Username == username })
}

func (s *memUserStore) FindByLogin(_ context.Context, username, email string) (*model.User, error) {
	return s.findWhere(func(u *model.User) bool { return u.Username == username || u.Email == email })
}

func (s *memUserStore) Insert(_ context.Context, user *model.User) (primitive.ObjectID, error) {
	return s.add(*user), nil
}

func (s *memUserStore) SetVehicles(_ context.Context, id primitive.ObjectID, vehicles []primitive.ObjectID) (int64, error) {
	if s.setVehiclesErr != nil {
		return 0, s.setVehiclesErr
	}
	if s.modifiedZero {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	user.Vehicles = vehicles
	return 1, nil
}

func (s *memUserStore) CountWithVehicle(_ context.Context, vid primitive.ObjectID) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, user := range s.users {
		for _, owned := range user.Vehicles {
			if owned == vid {
				count++
				break
			}
		}
	}
	return count, nil
}

type memVehicleStore struct {
	mu       sync.Mutex
	vehicles map[primitive.ObjectID]*model.Vehicle
}

func newMemVehicleStore() *memVehicleStore {
	return &memVehicleStore{vehicles: make(map[primitive.ObjectID]*model.Vehicle)}
}

func (s *memVehicleStore) add(vehicle model.Vehicle) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	s.vehicles[vehicle.ID] = &vehicle
	return vehicle.ID
}

func (s *memVehicleStore) FindByID(_ context.Context, id primitive.ObjectID) (*model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vehicle, ok := s.vehicles[id]; ok {
		copied := *vehicle
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *memVehicleStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Vehicle{}
	for _, id := range ids {
		if vehicle, ok := s.vehicles[id]; ok {
			out = append(out, *vehicle)
		}
	}
	return out, nil
}

func (s *memVehicleStore) Insert(_ context.Context, vehicle *model.Vehicle) (primitive.ObjectID, error) {
	return s.add(*vehicle), nil
}

func (s *memVehicleStore) Update(_ context.Context, id primitive.ObjectID, company, vmodel string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicle, ok := s.vehicles[id]
	if !ok {
		return 0, nil
	}
	vehicle.Company = company
	vehicle.Model = vmodel
	return 1, nil
}

type memLogStore struct {
	mu   sync.Mutex
	docs map[string][]model.DailyLog

	latestErr error
}

func newMemLogStore() *memLogStore {
	return &memLogStore{docs: make(map[string][]model.DailyLog)}
}

func (s *memLogStore) Latest(_ context.Context, vid string) (*model.DailyLog, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.docs[vid]
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	copied := docs[len(docs)-1]
	return &copied, nil
}

func (s *memLogStore) Insert(_ context.Context, vid string, log *model.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	s.docs[vid] = append(s.docs[vid], *log)
	return nil
}

func (s *memLogStore) Update(_ context.Context, vid string, log *model.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.docs[vid] {
		if doc.ID == log.ID {
			s.docs[vid][i] = *log
			return nil
		}
	}
	return errors.New("no such document")
}

func (s *memLogStore) ByDate(_ context.Context, vid, date string) (*model.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs[vid] {
		if doc.Date == date {
			copied := doc
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memLogStore) Range(_ context.Context, vid, start, end string) ([]model.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.DailyLog{}
	for _, doc := range s.docs[vid] {
		if doc.Date >= start && doc.Date <= end {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *memLogStore) All(_ context.Context, vid string) ([]model.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DailyLog{}, s.docs[vid]...), nil
}
