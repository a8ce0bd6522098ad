package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction is a read-model record of a completed payment event tied to an
// Order. Informational only — never consulted for authorization or totals.
type Transaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID     primitive.ObjectID  `bson:"order" json:"orderId"`
	DeliveryBoy *primitive.ObjectID `bson:"deliveryBoy,omitempty" json:"deliveryBoyId,omitempty"`
	Amount      float64             `bson:"amount" json:"amount"`
	Method      PaymentMethod       `bson:"method" json:"method"`
	Status      PaymentStatus       `bson:"status" json:"status"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
