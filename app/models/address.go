package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a delivery address owned by exactly one customer.
type Address struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user" json:"userId"`
	Apartment  string             `bson:"apartment,omitempty" json:"apartment,omitempty"`
	Line       string             `bson:"line" json:"line"`
	City       string             `bson:"city" json:"city"`
	PostalCode string             `bson:"postalCode" json:"postalCode"`
	Latitude   *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude  *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	IsDefault  bool               `bson:"isDefault" json:"isDefault"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
