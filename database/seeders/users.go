package seeders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"dukaan/app/models"
	"dukaan/config"
	"dukaan/pkg/auth"
)

func init() {
	Register("admin-user", SeedAdmin)
	Register("sample-driver", SeedDriver)
}

// SeedAdmin creates the initial back-office account when none exists.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD.
func SeedAdmin(ctx context.Context, db *mongo.Database) error {
	col := db.Collection("users")

	email := config.Get("ADMIN_EMAIL", "admin@dukaan.app")
	if err := col.FindOne(ctx, bson.M{"email": email}).Err(); err == nil {
		return nil // already seeded
	} else if err != mongo.ErrNoDocuments {
		return err
	}

	hash, err := auth.HashPassword(config.Get("ADMIN_PASSWORD", "admin123"))
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = col.InsertOne(ctx, models.User{
		Name:      "Admin",
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

// SeedDriver creates one delivery partner with a ready profile so a fresh
// install can exercise assignment and delivery flows.
func SeedDriver(ctx context.Context, db *mongo.Database) error {
	users := db.Collection("users")

	email := "driver@dukaan.app"
	if err := users.FindOne(ctx, bson.M{"email": email}).Err(); err == nil {
		return nil
	} else if err != mongo.ErrNoDocuments {
		return err
	}

	hash, err := auth.HashPassword("driver123")
	if err != nil {
		return err
	}

	now := time.Now()
	res, err := users.InsertOne(ctx, models.User{
		Name:      "Sample Driver",
		Email:     email,
		Phone:     "9000000001",
		Password:  hash,
		Role:      models.RoleDeliveryBoy,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("delivery_profiles").InsertOne(ctx, models.DeliveryProfile{
		UserID:      res.InsertedID.(primitive.ObjectID),
		VehicleType: "bike",
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return err
}
