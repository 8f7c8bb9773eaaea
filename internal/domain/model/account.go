package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the account document persisted in the "users" collection.
// Password is an opaque equality-comparable credential; hashing
// discipline lives with the clients of this API.
type User struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"uid"`
	Name     string               `bson:"name" json:"name"`
	Username string               `bson:"username" json:"username"`
	Password string               `bson:"password" json:"-"`
	Email    string               `bson:"email" json:"email"`
	Vehicles []primitive.ObjectID `bson:"vehicles" json:"vehicles"`
}

// Vehicle is the registration document persisted in the "vehicles"
// collection. Its hex id doubles as the room id in the Lobby.
type Vehicle struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Company string             `bson:"company" json:"company"`
	Model   string             `bson:"model" json:"model"`
}
