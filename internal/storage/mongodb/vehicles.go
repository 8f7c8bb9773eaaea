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

type VehicleRepository struct {
	col   *mongo.Collection
	guard *infra.Guard
}

var _ service.VehicleStore = (*VehicleRepository)(nil)

func NewVehicleRepository(db *mongo.Database, guard *infra.Guard) *VehicleRepository {
	return &VehicleRepository{col: db.Collection("vehicles"), guard: guard}
}

func (r *VehicleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Vehicle, error) {
	res, err := r.guard.Do(func() (any, error) {
		var vehicle model.Vehicle
		err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &vehicle, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.Vehicle), nil
}

// FindByIDs hydrates a user's vehicle list in one round trip. Order of
// the result follows the cursor, not the input.
func (r *VehicleRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Vehicle, error) {
	if len(ids) == 0 {
		return []model.Vehicle{}, nil
	}
	res, err := r.guard.Do(func() (any, error) {
		cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		vehicles := make([]model.Vehicle, 0, len(ids))
		if err := cursor.All(ctx, &vehicles); err != nil {
			return nil, err
		}
		return vehicles, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.Vehicle), nil
}

func (r *VehicleRepository) Insert(ctx context.Context, vehicle *model.Vehicle) (primitive.ObjectID, error) {
	res, err := r.guard.Do(func() (any, error) {
		return r.col.InsertOne(ctx, vehicle)
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

func (r *VehicleRepository) Update(ctx context.Context, id primitive.ObjectID, company, vmodel string) (int64, error) {
	res, err := r.guard.Do(func() (any, error) {
		return r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
			"company": company,
			"model":   vmodel,
		}})
	})
	if err != nil {
		return 0, err
	}
	return res.(*mongo.UpdateResult).ModifiedCount, nil
}
