package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/pkg/collection"
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAssigned  OrderStatus = "assigned"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit,
		StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether the guarded lifecycle permits moving from s
// to next. Cancellation is reachable from any non-terminal state; otherwise
// the order walks pending → assigned → picked_up → in_transit → delivered.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusAssigned
	case StatusAssigned:
		return next == StatusPickedUp
	case StatusPickedUp:
		return next == StatusInTransit
	case StatusInTransit:
		return next == StatusDelivered
	}
	return false
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentUPI   PaymentMethod = "upi"
	PaymentCard  PaymentMethod = "card"
	PaymentCOD   PaymentMethod = "cod"
	PaymentOther PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentCard, PaymentCOD, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus tracks the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
)

// DerivePaymentStatus maps a payment method chosen at delivery time to the
// resulting payment status: cash-on-delivery settles later, everything else
// is collected up front.
func DerivePaymentStatus(m PaymentMethod) PaymentStatus {
	if m == PaymentCOD {
		return PaymentUnpaid
	}
	return PaymentPaid
}

// OrderItem is a catalog snapshot embedded in an Order. Name and Price are
// captured at order time; later catalog edits never touch them.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Subtotal returns price × quantity for this line.
func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Order is the central entity of the marketplace. TotalAmount is computed
// once at creation and never recomputed; DeliveryBoyID is set exactly once
// at assignment.
type Order struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber string              `bson:"orderNumber" json:"orderNumber"`
	CustomerID  primitive.ObjectID  `bson:"customer" json:"customerId"`
	DeliveryBoy *primitive.ObjectID `bson:"deliveryBoy,omitempty" json:"deliveryBoyId,omitempty"`
	Items       []OrderItem         `bson:"items" json:"items"`
	TotalAmount float64             `bson:"totalAmount" json:"totalAmount"`
	Status      OrderStatus         `bson:"status" json:"status"`

	PaymentMethod PaymentMethod `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`

	AddressID primitive.ObjectID `bson:"address" json:"addressId"`

	// PackageCode is the random token printed on the physical package and
	// checked at handover. Scan succeeds iff the scanned code equals either
	// PackageCode or OrderNumber, case-sensitive.
	PackageCode string     `bson:"packageCode" json:"packageCode"`
	ScannedAt   *time.Time `bson:"scannedAt,omitempty" json:"scannedAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MatchesScan reports whether code identifies this order's package.
func (o *Order) MatchesScan(code string) bool {
	return code != "" && (code == o.PackageCode || code == o.OrderNumber)
}

// ComputeTotal sums the snapshotted line subtotals.
func ComputeTotal(items []OrderItem) float64 {
	return collection.Sum(items, OrderItem.Subtotal)
}

// NewOrderNumber generates a unique human-readable order number.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD%d%s", time.Now().UnixMilli(), randomHex(3))
}

// NewPackageCode generates the random package verification token.
func NewPackageCode() string {
	return "PKG" + randomHex(6)
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b) //nolint:errcheck
	return hex.EncodeToString(b)
}
