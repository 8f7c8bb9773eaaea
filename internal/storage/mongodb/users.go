// Package mongodb implements the service store ports on the document
// store. Every round trip runs under the shared circuit-breaker guard.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	infra "github.com/alpadrive/server/infra/mongodb"
	"github.com/alpadrive/server/internal/domain/model"
	"github.com/alpadrive/server/internal/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository struct {
	col   *mongo.Collection
	guard *infra.Guard
}

var _ service.UserStore = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database, guard *infra.Guard) *UserRepository {
	return &UserRepository{col: db.Collection("users"), guard: guard}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	res, err := r.guard.Do(func() (any, error) {
		var user model.User
		err := r.col.FindOne(ctx, filter).Decode(&user)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.User), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByLogin(ctx context.Context, username, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"$or": []bson.M{{"username": username}, {"email": email}}})
}

func (r *UserRepository) Insert(ctx context.Context, user *model.User) (primitive.ObjectID, error) {
	res, err := r.guard.Do(func() (any, error) {
		return r.col.InsertOne(ctx, user)
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type")
	}
	return id, nil
}

func (r *UserRepository) SetVehicles(ctx context.Context, id primitive.ObjectID, vehicles []primitive.ObjectID) (int64, error) {
	res, err := r.guard.Do(func() (any, error) {
		return r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"vehicles": vehicles}})
	})
	if err != nil {
		return 0, err
	}
	return res.(*mongo.UpdateResult).ModifiedCount, nil
}

func (r *UserRepository) CountWithVehicle(ctx context.Context, vid primitive.ObjectID) (int64, error) {
	res, err := r.guard.Do(func() (any, error) {
		return r.col.CountDocuments(ctx, bson.M{"vehicles": bson.M{"$elemMatch": bson.M{"$eq": vid}}})
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}
