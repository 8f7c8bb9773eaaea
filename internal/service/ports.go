package service

import (
	"context"

	"github.com/alpadrive/server/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the document-store contract for the users collection.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// FindByLogin matches either credential, the way login payloads
	// arrive with one of the two filled in.
	FindByLogin(ctx context.Context, username, email string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) (primitive.ObjectID, error)
	// SetVehicles replaces the user's vehicle list and reports how many
	// documents were modified.
	SetVehicles(ctx context.Context, id primitive.ObjectID, vehicles []primitive.ObjectID) (int64, error)
	// CountWithVehicle counts users whose vehicles list contains vid.
	CountWithVehicle(ctx context.Context, vid primitive.ObjectID) (int64, error)
}

// VehicleStore is the document-store contract for the vehicles collection.
type VehicleStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Vehicle, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Vehicle, error)
	Insert(ctx context.Context, vehicle *model.Vehicle) (primitive.ObjectID, error)
	Update(ctx context.Context, id primitive.ObjectID, company, vmodel string) (int64, error)
}

// LogStore is the per-vehicle daily-log contract. Each vehicle has a
// dedicated collection keyed by its hex id.
type LogStore interface {
	// Latest returns the most recently inserted document for the vehicle.
	Latest(ctx context.Context, vid string) (*model.DailyLog, error)
	Insert(ctx context.Context, vid string, log *model.DailyLog) error
	// Update persists the document in place, keyed by its identifier.
	Update(ctx context.Context, vid string, log *model.DailyLog) error
	ByDate(ctx context.Context, vid, date string) (*model.DailyLog, error)
	// Range scans start <= date <= end with the store's native string
	// comparison on the serialized date field.
	Range(ctx context.Context, vid, start, end string) ([]model.DailyLog, error)
	All(ctx context.Context, vid string) ([]model.DailyLog, error)
}

// SystemProber exposes the host memory probe behind the status snapshot.
type SystemProber interface {
	Memory() (MemoryStats, error)
}

// MemoryStats is a host memory snapshot in gigabytes.
type MemoryStats struct {
	TotalGB     float64
	UsedGB      float64
	SwapTotalGB float64
	SwapUsedGB  float64
}
