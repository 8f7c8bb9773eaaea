package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Location is an optional GPS fix inside a sample.
type Location struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lon float64 `json:"lon" bson:"lon"`
}

// Sample is one telemetry observation posted by a vehicle. Optional
// vitals are pointers so absence survives JSON round trips.
type Sample struct {
	Gear     *int      `json:"gear,omitempty"`
	RPM      *int64    `json:"rpm,omitempty"`
	Speed    *int64    `json:"speed,omitempty"`
	Location *Location `json:"location,omitempty"`
	Temp     *float64  `json:"temp,omitempty"`
	Fuel     *float64  `json:"fuel,omitempty"`
	Odo      int64     `json:"odo"`
	Stressed bool      `json:"stressed"`
}

// MaxSpeed records the day's top speed and the local-time instant it
// was hit, rendered in IST.
type MaxSpeed struct {
	Value int64  `bson:"value" json:"value"`
	HitAt string `bson:"hit_at" json:"hit_at"`
}

// DailyLog is the rolling per-(vehicle, day) aggregate. All running
// figures use integer arithmetic; see the aggregator for the exact
// recurrences.
type DailyLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Date         string             `bson:"date" json:"date"`
	AverageSpeed int64              `bson:"average_speed" json:"average_speed"`
	Distance     int64              `bson:"distance" json:"distance"`
	Stress       int64              `bson:"stress" json:"stress"`
	LastOdometer int64              `bson:"last_odometer" json:"last_odometer"`
	MessageCount int64              `bson:"message_count" json:"message_count"`
	MaxSpeed     MaxSpeed           `bson:"max_speed" json:"max_speed"`
}

// Rollup is the reduction of a set of daily logs over a period (or the
// vehicle's lifetime).
type Rollup struct {
	Days         int64    `json:"days"`
	AverageSpeed int64    `json:"average_speed"`
	Distance     int64    `json:"distance"`
	StressCount  int64    `json:"stress_count"`
	LastOdometer int64    `json:"last_odometer"`
	MaxSpeed     MaxSpeed `json:"max_speed"`
	Degradation  float64  `json:"degradation"`
}
