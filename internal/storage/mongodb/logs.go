package mongodb

import (
	"context"
	"errors"

	infra "github.com/alpadrive/server/infra/mongodb"
	"github.com/alpadrive/server/internal/domain/model"
	"github.com/alpadrive/server/internal/service"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LogRepository keeps one collection per vehicle, named by the vehicle's
// hex id. Document ids are monotonic, so "latest" is a sort on _id.
type LogRepository struct {
	db    *mongo.Database
	guard *infra.Guard
}

var _ service.LogStore = (*LogRepository)(nil)

func NewLogRepository(db *mongo.Database, guard *infra.Guard) *LogRepository {
	return &LogRepository{db: db, guard: guard}
}

func (r *LogRepository) col(vid string) *mongo.Collection {
	return r.db.Collection(vid)
}

func (r *LogRepository) findOne(ctx context.Context, vid string, filter bson.M, opts ...*options.FindOneOptions) (*model.DailyLog, error) {
	res, err := r.guard.Do(func() (any, error) {
		var log model.DailyLog
		err := r.col(vid).FindOne(ctx, filter, opts...).Decode(&log)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, service.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return &log, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*model.DailyLog), nil
}

func (r *LogRepository) findMany(ctx context.Context, vid string, filter bson.M) ([]model.DailyLog, error) {
	res, err := r.guard.Do(func() (any, error) {
		cursor, err := r.col(vid).Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		logs := []model.DailyLog{}
		if err := cursor.All(ctx, &logs); err != nil {
			return nil, err
		}
		return logs, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]model.DailyLog), nil
}

func (r *LogRepository) Latest(ctx context.Context, vid string) (*model.DailyLog, error) {
	return r.findOne(ctx, vid, bson.M{}, options.FindOne().SetSort(bson.M{"_id": -1}))
}

func (r *LogRepository) Insert(ctx context.Context, vid string, log *model.DailyLog) error {
	_, err := r.guard.Do(func() (any, error) {
		res, err := r.col(vid).InsertOne(ctx, log)
		if err != nil {
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			log.ID = id
		}
		return res, nil
	})
	return err
}

func (r *LogRepository) Update(ctx context.Context, vid string, log *model.DailyLog) error {
	_, err := r.guard.Do(func() (any, error) {
		return r.col(vid).ReplaceOne(ctx, bson.M{"_id": log.ID}, log)
	})
	return err
}

func (r *LogRepository) ByDate(ctx context.Context, vid, date string) (*model.DailyLog, error) {
	return r.findOne(ctx, vid, bson.M{"date": date})
}

func (r *LogRepository) Range(ctx context.Context, vid, start, end string) ([]model.DailyLog, error) {
	return r.findMany(ctx, vid, bson.M{"date": bson.M{"$gte": start, "$lte": end}})
}

func (r *LogRepository) All(ctx context.Context, vid string) ([]model.DailyLog, error) {
	return r.findMany(ctx, vid, bson.M{})
}
