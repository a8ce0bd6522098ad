package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryProfile is a 1:1 extension of a User with role=delivery_boy.
// TotalDeliveries and TotalEarnings are mutated only by delivery-confirmation
// side effects; profile-update requests touch the vehicle/availability fields.
type DeliveryProfile struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user" json:"userId"`
	VehicleType   string             `bson:"vehicleType,omitempty" json:"vehicleType,omitempty"`
	VehicleNumber string             `bson:"vehicleNumber,omitempty" json:"vehicleNumber,omitempty"`
	LicenseNumber string             `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`

	TotalDeliveries int     `bson:"totalDeliveries" json:"totalDeliveries"`
	TotalEarnings   float64 `bson:"totalEarnings" json:"totalEarnings"`
	Rating          float64 `bson:"rating" json:"rating"` // 0–5
	IsAvailable     bool    `bson:"isAvailable" json:"isAvailable"`

	// Last known location, set by the driver app.
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
