package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of user roles. Handlers and the policy layer switch
// on it exhaustively instead of comparing raw strings.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleDeliveryBoy Role = "delivery_boy"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDeliveryBoy, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// User is the primary identity record. At least one of Email/Phone is set.
// Users are deactivated (IsActive=false), never hard-deleted.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Password string             `bson:"password" json:"-"` // hashed, never serialised
	Role     Role               `bson:"role" json:"role"`
	IsActive bool               `bson:"isActive" json:"isActive"`

	// Reset fields hold a SHA-256 digest of the reset token, never the token
	// itself. Cleared on successful reset.
	ResetPasswordToken  string     `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpiry *time.Time `bson:"resetPasswordExpiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the safe serialisation of a User (no credential material).
type PublicUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"isActive"`
}

// Public returns the serialisable view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID.Hex(),
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
