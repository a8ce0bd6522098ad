package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dukaan/app/models"
	"dukaan/app/services"
	"dukaan/pkg/apperr"
)

func TestAdmin_NonAdminDenied(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)

	_, _, err := f.admin.ListUsers(context.Background(), customer, "", 1, 10)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	err = f.admin.DeactivateUser(context.Background(), driver, customer.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = f.admin.Dashboard(context.Background(), driver, 7)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestAdmin_CreateDriverForcesRole(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)

	res, err := f.admin.CreateDriver(context.Background(), admin, services.RegisterInput{
		Name:     "sanjay",
		Email:    "sanjay@example.com",
		Password: "secret1",
		Role:     models.RoleAdmin, // ignored
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDeliveryBoy, res.User.Role)
}

func TestAdmin_ListUsersFiltersByRole(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	f.registerUser(t, "asha", models.RoleCustomer)
	f.registerUser(t, "ravi", models.RoleDeliveryBoy)

	drivers, total, err := f.admin.ListUsers(context.Background(), admin, models.RoleDeliveryBoy, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, drivers, 1)
	assert.Equal(t, "ravi", drivers[0].Name)

	// A deactivated driver leaves the roster.
	require.NoError(t, f.admin.DeactivateUser(context.Background(), admin, drivers[0].ID.Hex()))
	_, total, err = f.admin.ListUsers(context.Background(), admin, models.RoleDeliveryBoy, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, _, err = f.admin.ListUsers(context.Background(), admin, models.Role("superuser"), 1, 10)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAdmin_DashboardAggregates(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	tv := f.addProduct(t, "TV", 1000)

	// One delivered for cash, one delivered on cod (still unsettled), one
	// pending.
	first := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: tv.ID.Hex(), Quantity: 1}})
	second := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: tv.ID.Hex(), Quantity: 1}})
	f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: tv.ID.Hex(), Quantity: 1}})

	deliver := func(o *models.Order, method models.PaymentMethod) {
		_, err := f.orderSv.Assign(context.Background(), admin, o.ID.Hex(), driver.ID)
		require.NoError(t, err)
		_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, o.ID.Hex(), services.ConfirmDeliveryInput{
			Scanned:       true,
			ScannedCode:   o.PackageCode,
			PaymentMethod: method,
		})
		require.NoError(t, err)
	}
	deliver(first, models.PaymentCash)
	deliver(second, models.PaymentCOD)

	stats, err := f.admin.Dashboard(context.Background(), admin, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.OrdersByStatus[models.StatusDelivered])
	assert.Equal(t, int64(1), stats.OrdersByStatus[models.StatusPending])
	assert.Equal(t, int64(1), stats.UnpaidOrders)
	assert.Equal(t, int64(1), stats.ActiveDrivers)

	require.Len(t, stats.RevenueByMethod, 2)
	var cash float64
	for _, row := range stats.RevenueByMethod {
		if row.Method == models.PaymentCash {
			cash = row.Total
		}
	}
	assert.Equal(t, 1000.0, cash)

	// A deactivated driver drops out of the headcount.
	require.NoError(t, f.admin.DeactivateUser(context.Background(), admin, driver.ID))
	stats, err = f.admin.Dashboard(context.Background(), admin, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ActiveDrivers)
}

func TestAdmin_DashboardWindowExcludesOldOrders(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	tv := f.addProduct(t, "TV", 1000)

	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: tv.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)
	_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), services.ConfirmDeliveryInput{
		Scanned:       true,
		ScannedCode:   order.PackageCode,
		PaymentMethod: models.PaymentCOD,
	})
	require.NoError(t, err)

	// Age the order past the reporting window.
	old := time.Now().AddDate(0, 0, -30)
	f.orders.Backdate(order.ID, old)

	stats, err := f.admin.Dashboard(context.Background(), admin, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.OrdersByStatus[models.StatusDelivered])
	assert.Empty(t, stats.RevenueByMethod)
	assert.Equal(t, int64(0), stats.UnpaidOrders)
}

func TestAdmin_DriverTransactions(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	tv := f.addProduct(t, "TV", 1000)

	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: tv.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)
	_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), services.ConfirmDeliveryInput{
		Scanned:       true,
		ScannedCode:   order.PackageCode,
		PaymentMethod: models.PaymentUPI,
	})
	require.NoError(t, err)

	_, _, err = f.admin.DriverTransactions(context.Background(), customer, driver.ID, 1, 20)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	txs, total, err := f.admin.DriverTransactions(context.Background(), admin, driver.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, models.PaymentPaid, txs[0].Status)
}

func TestAdmin_UpdateDriver(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)

	in := services.UpdateDriverInput{Name: "Ravi Kumar", Phone: "9876543210"}
	updated, err := f.admin.UpdateDriver(context.Background(), admin, driver.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", updated.Name)
	assert.Equal(t, "9876543210", updated.Phone)
	assert.Equal(t, models.RoleDeliveryBoy, updated.Role)

	// Only driver accounts are reachable through this path.
	_, err = f.admin.UpdateDriver(context.Background(), admin, customer.ID, in)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.admin.UpdateDriver(context.Background(), customer, driver.ID, in)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}
