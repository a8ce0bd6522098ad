package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
)

// ErrNotFound is the sentinel repositories return when a lookup or a
// conditional update matches nothing. Services translate it into the
// appropriate apperr kind for the caller.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique constraint (email, phone,
// transaction order) is violated.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository persists identity records.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// FindByIdentifier looks up by email or phone, whichever matches.
	FindByIdentifier(ctx context.Context, emailOrPhone string) (*models.User, error)
	// FindByResetDigest looks up by the stored reset-token digest, only when
	// the expiry has not passed.
	FindByResetDigest(ctx context.Context, digest string, now time.Time) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	// Deactivate sets isActive=false. Idempotent: deactivating an already
	// inactive user succeeds.
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, role models.Role, page, limit int) ([]models.User, int64, error)
	// ClearExpiredResetTokens unsets reset fields past their expiry and
	// returns the number of users touched.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// ProfileRepository persists driver delivery profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *models.DeliveryProfile) error
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.DeliveryProfile, error)
	Update(ctx context.Context, p *models.DeliveryProfile) error
	// RecordDelivery atomically increments totalDeliveries by 1 and
	// totalEarnings by earnings on the driver's profile.
	RecordDelivery(ctx context.Context, userID primitive.ObjectID, earnings float64) error
	// Leaderboard returns profiles ordered by totalDeliveries descending.
	Leaderboard(ctx context.Context, topN int) ([]models.DeliveryProfile, error)
}

// AddressRepository persists customer delivery addresses.
type AddressRepository interface {
	Create(ctx context.Context, a *models.Address) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Address, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	Update(ctx context.Context, a *models.Address) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, category string, page, limit int) ([]models.Product, int64, error)
	Update(ctx context.Context, p *models.Product) error
	// SetInStock flips the availability flag; products are never removed.
	SetInStock(ctx context.Context, id primitive.ObjectID, inStock bool) error
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status models.OrderStatus // empty = all
	Page   int
	Limit  int
}

// MethodRevenue is one row of the payment-method revenue breakdown.
type MethodRevenue struct {
	Method models.PaymentMethod `bson:"_id" json:"method"`
	Total  float64              `bson:"total" json:"total"`
	Count  int64                `bson:"count" json:"count"`
}

// DailyRevenue is one row of the per-day revenue breakdown.
type DailyRevenue struct {
	Day   string  `bson:"_id" json:"day"` // YYYY-MM-DD
	Total float64 `bson:"total" json:"total"`
	Count int64   `bson:"count" json:"count"`
}

// OrderRepository persists orders. The conditional updates below are the
// atomicity boundary: each filters on the current status so concurrent
// writers cannot double-apply a transition.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, f OrderFilter) ([]models.Order, int64, error)
	ListByDriver(ctx context.Context, driverID primitive.ObjectID, f OrderFilter) ([]models.Order, int64, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)

	// Assign sets the driver and moves pending→assigned in one conditional
	// update. ErrNotFound if the order is missing or no longer pending.
	Assign(ctx context.Context, orderID, driverID primitive.ObjectID) (*models.Order, error)

	// SetScanned records the scan timestamp without touching status.
	SetScanned(ctx context.Context, orderID primitive.ObjectID, at time.Time) error

	// UpdateStatus applies from→to, matching only documents currently in
	// from. ErrNotFound if the order is absent or not in from.
	UpdateStatus(ctx context.Context, orderID primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error)

	// MarkDelivered completes the order: status→delivered, deliveredAt,
	// payment fields. Matches only non-terminal orders, so a second confirm
	// returns ErrNotFound and never double-applies.
	MarkDelivered(ctx context.Context, orderID primitive.ObjectID, method models.PaymentMethod, at time.Time) (*models.Order, error)

	// ForceStatus sets status unconditionally (operator override).
	ForceStatus(ctx context.Context, orderID primitive.ObjectID, to models.OrderStatus) (*models.Order, error)

	// Dashboard aggregations, period-scoped: counts by createdAt, revenue
	// by deliveredAt.
	CountByStatus(ctx context.Context, since time.Time) (map[models.OrderStatus]int64, error)
	RevenueByMethod(ctx context.Context, since time.Time) ([]MethodRevenue, error)
	RevenueByDay(ctx context.Context, days int) ([]DailyRevenue, error)
	// UnpaidCount counts delivered-but-unsettled orders in the window.
	UnpaidCount(ctx context.Context, since time.Time) (int64, error)
}

// TransactionRepository persists the payment read-model. Create must be
// idempotent per order (unique index on the order reference).
type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	ListByDriver(ctx context.Context, driverID primitive.ObjectID, page, limit int) ([]models.Transaction, int64, error)
}

// ResetNotifier delivers a password-reset token out of band (mail/SMS).
// The token never appears in an HTTP response.
type ResetNotifier interface {
	SendResetToken(user *models.User, token string)
}
