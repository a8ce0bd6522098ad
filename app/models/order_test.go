package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.StatusPending, models.StatusAssigned, true},
		{models.StatusAssigned, models.StatusPickedUp, true},
		{models.StatusPickedUp, models.StatusInTransit, true},
		{models.StatusInTransit, models.StatusDelivered, true},

		// Cancellation from any non-terminal state.
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusAssigned, models.StatusCancelled, true},
		{models.StatusInTransit, models.StatusCancelled, true},

		// Skips are rejected.
		{models.StatusPending, models.StatusPickedUp, false},
		{models.StatusPending, models.StatusDelivered, false},
		{models.StatusAssigned, models.StatusInTransit, false},

		// Backwards moves are rejected.
		{models.StatusInTransit, models.StatusPickedUp, false},
		{models.StatusAssigned, models.StatusPending, false},

		// Terminal states are dead ends.
		{models.StatusDelivered, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusPending, false},
		{models.StatusDelivered, models.StatusDelivered, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransition(tt.to)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, models.StatusDelivered.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
	assert.False(t, models.StatusPending.Terminal())
	assert.False(t, models.StatusInTransit.Terminal())
}

func TestDerivePaymentStatus(t *testing.T) {
	assert.Equal(t, models.PaymentUnpaid, models.DerivePaymentStatus(models.PaymentCOD))
	assert.Equal(t, models.PaymentPaid, models.DerivePaymentStatus(models.PaymentCash))
	assert.Equal(t, models.PaymentPaid, models.DerivePaymentStatus(models.PaymentUPI))
	assert.Equal(t, models.PaymentPaid, models.DerivePaymentStatus(models.PaymentCard))
}

func TestComputeTotal_SnapshottedPrices(t *testing.T) {
	items := []models.OrderItem{
		{ProductID: primitive.NewObjectID(), Name: "Rice", Price: 60, Quantity: 2},
		{ProductID: primitive.NewObjectID(), Name: "Oil", Price: 40, Quantity: 1},
	}
	assert.Equal(t, 160.0, models.ComputeTotal(items))
}

func TestOrder_MatchesScan(t *testing.T) {
	o := models.Order{OrderNumber: "ORD1700000000000abc", PackageCode: "PKGdeadbeef1234"}

	assert.True(t, o.MatchesScan("PKGdeadbeef1234"))
	assert.True(t, o.MatchesScan("ORD1700000000000abc"))

	// Case-sensitive exact match only.
	assert.False(t, o.MatchesScan("pkgdeadbeef1234"))
	assert.False(t, o.MatchesScan("PKGdeadbeef123"))
	assert.False(t, o.MatchesScan(""))
}

func TestCodeGenerators(t *testing.T) {
	on := models.NewOrderNumber()
	pc := models.NewPackageCode()

	assert.True(t, strings.HasPrefix(on, "ORD"))
	assert.True(t, strings.HasPrefix(pc, "PKG"))
	assert.NotEqual(t, models.NewPackageCode(), pc)
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, models.RoleCustomer.Valid())
	assert.True(t, models.RoleDeliveryBoy.Valid())
	assert.True(t, models.RoleAdmin.Valid())
	assert.False(t, models.Role("superuser").Valid())
	assert.False(t, models.Role("").Valid())
}
