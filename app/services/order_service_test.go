package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/app/policy"
	"dukaan/app/services"
	"dukaan/pkg/apperr"
)

// fixture wires every service against shared in-memory repositories.
type fixture struct {
	users        *fakeUserRepo
	profiles     *fakeProfileRepo
	addresses    *fakeAddressRepo
	products     *fakeProductRepo
	orders       *fakeOrderRepo
	transactions *fakeTransactionRepo

	auth    *services.AuthService
	orderSv *services.OrderService
	admin   *services.AdminService
}

func newFixture() *fixture {
	f := &fixture{
		users:        newFakeUserRepo(),
		profiles:     newFakeProfileRepo(),
		addresses:    newFakeAddressRepo(),
		products:     newFakeProductRepo(),
		orders:       newFakeOrderRepo(),
		transactions: newFakeTransactionRepo(),
	}
	f.auth = services.NewAuthService(f.users, f.profiles, newRecordingNotifier())
	f.orderSv = services.NewOrderService(f.orders, f.products, f.addresses, f.users, f.profiles, f.transactions)
	f.admin = services.NewAdminService(f.users, f.orders, f.transactions, f.auth)
	return f
}

func (f *fixture) registerUser(t *testing.T, name string, role models.Role) policy.Principal {
	t.Helper()
	res, err := f.auth.Register(context.Background(), services.RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	return policy.Principal{ID: res.User.ID, Role: res.User.Role}
}

func (f *fixture) addProduct(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, InStock: true}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) addAddress(t *testing.T, owner policy.Principal) *models.Address {
	t.Helper()
	uid, err := primitive.ObjectIDFromHex(owner.ID)
	require.NoError(t, err)
	a := &models.Address{UserID: uid, Line: "12 MG Road", City: "Pune", PostalCode: "411001"}
	require.NoError(t, f.addresses.Create(context.Background(), a))
	return a
}

func (f *fixture) placeOrder(t *testing.T, customer policy.Principal, items []services.OrderItemInput) *models.Order {
	t.Helper()
	addr := f.addAddress(t, customer)
	order, err := f.orderSv.Create(context.Background(), customer, services.CreateOrderInput{
		Items:     items,
		AddressID: addr.ID.Hex(),
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder_SnapshotsPriceAndTotals(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	rice := f.addProduct(t, "Rice 5kg", 60)
	oil := f.addProduct(t, "Oil 1l", 40)

	order := f.placeOrder(t, customer, []services.OrderItemInput{
		{ProductID: rice.ID.Hex(), Quantity: 2},
		{ProductID: oil.ID.Hex(), Quantity: 1},
	})

	assert.Equal(t, 160.0, order.TotalAmount)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.NotEmpty(t, order.OrderNumber)
	assert.NotEmpty(t, order.PackageCode)

	// A later catalog price change never touches the snapshot.
	rice.Price = 999
	require.NoError(t, f.products.Update(context.Background(), rice))

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 160.0, stored.TotalAmount)
	assert.Equal(t, 60.0, stored.Items[0].Price)
	assert.Equal(t, stored.TotalAmount, models.ComputeTotal(stored.Items))
}

func TestCreateOrder_RejectsForeignAddress(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	other := f.registerUser(t, "meena", models.RoleCustomer)
	rice := f.addProduct(t, "Rice", 60)
	foreign := f.addAddress(t, other)

	_, err := f.orderSv.Create(context.Background(), customer, services.CreateOrderInput{
		Items:     []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}},
		AddressID: foreign.ID.Hex(),
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateOrder_RejectsUnknownAndOutOfStockProducts(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	addr := f.addAddress(t, customer)

	_, err := f.orderSv.Create(context.Background(), customer, services.CreateOrderInput{
		Items:     []services.OrderItemInput{{ProductID: primitive.NewObjectID().Hex(), Quantity: 1}},
		AddressID: addr.ID.Hex(),
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	gone := f.addProduct(t, "Gone", 10)
	require.NoError(t, f.products.SetInStock(context.Background(), gone.ID, false))

	_, err = f.orderSv.Create(context.Background(), customer, services.CreateOrderInput{
		Items:     []services.OrderItemInput{{ProductID: gone.ID.Hex(), Quantity: 1}},
		AddressID: addr.ID.Hex(),
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAssign_RequiresActiveDriver(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	rice := f.addProduct(t, "Rice", 60)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}})

	// A customer is not an assignable driver.
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), customer.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	assigned, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, assigned.Status)
	assert.Equal(t, driver.ID, assigned.DeliveryBoy.Hex())

	// Assignment is one-shot: the order is no longer pending.
	_, err = f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestScanVerify_MatchesPackageCodeOrOrderNumber(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	rice := f.addProduct(t, "Rice", 60)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)

	res, err := f.orderSv.ScanVerify(context.Background(), driver, order.ID.Hex(), "WRONG")
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = f.orderSv.ScanVerify(context.Background(), driver, order.ID.Hex(), order.PackageCode)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.NotNil(t, res.ScannedAt)

	res, err = f.orderSv.ScanVerify(context.Background(), driver, order.ID.Hex(), order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	// Scan never advances the status.
	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, stored.Status)
}

func TestConfirmDelivery_ScanGate(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	rice := f.addProduct(t, "Rice", 60)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)

	// Scanned=false fails regardless of a correct code.
	_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), services.ConfirmDeliveryInput{
		Scanned:       false,
		ScannedCode:   order.PackageCode,
		PaymentMethod: models.PaymentCash,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Scanned=true with a wrong code and no recorded scan also fails.
	_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), services.ConfirmDeliveryInput{
		Scanned:       true,
		ScannedCode:   "WRONG",
		PaymentMethod: models.PaymentCash,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestConfirmDelivery_LedgerAccrual(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	item := f.addProduct(t, "TV", 1000)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: item.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)

	delivered, err := f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), services.ConfirmDeliveryInput{
		Scanned:       true,
		ScannedCode:   order.PackageCode,
		PaymentMethod: models.PaymentUPI,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)
	assert.Equal(t, models.PaymentPaid, delivered.PaymentStatus)
	assert.NotNil(t, delivered.DeliveredAt)

	uid, _ := primitive.ObjectIDFromHex(driver.ID)
	profile, err := f.profiles.FindByUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalDeliveries)
	assert.Equal(t, 100.0, profile.TotalEarnings)
}

func TestConfirmDelivery_RetryDoesNotDoubleAccrue(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	item := f.addProduct(t, "TV", 1000)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: item.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)

	in := services.ConfirmDeliveryInput{
		Scanned:       true,
		ScannedCode:   order.PackageCode,
		PaymentMethod: models.PaymentCash,
	}
	_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), in)
	require.NoError(t, err)

	// The retry hits the conditional commit and conflicts.
	_, err = f.orderSv.ConfirmDelivery(context.Background(), driver, order.ID.Hex(), in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	uid, _ := primitive.ObjectIDFromHex(driver.ID)
	profile, err := f.profiles.FindByUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalDeliveries)
	assert.Equal(t, 100.0, profile.TotalEarnings)

	// Exactly one transaction for the order.
	txs, _, err := f.transactions.ListByDriver(context.Background(), uid, 1, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestUpdateStatus_GuardedTransitions(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	rice := f.addProduct(t, "Rice", 60)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}})
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)

	// Skipping picked_up is rejected.
	_, err = f.orderSv.UpdateStatus(context.Background(), driver, order.ID.Hex(), models.StatusInTransit)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// delivered must go through confirmation.
	_, err = f.orderSv.UpdateStatus(context.Background(), driver, order.ID.Hex(), models.StatusDelivered)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	updated, err := f.orderSv.UpdateStatus(context.Background(), driver, order.ID.Hex(), models.StatusPickedUp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPickedUp, updated.Status)

	updated, err = f.orderSv.UpdateStatus(context.Background(), driver, order.ID.Hex(), models.StatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, updated.Status)

	// Cancellation works from any non-terminal state.
	cancelled, err := f.orderSv.Cancel(context.Background(), admin, order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// Terminal: nothing moves after cancellation.
	_, err = f.orderSv.UpdateStatus(context.Background(), admin, order.ID.Hex(), models.StatusPending)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestForceStatus_AdminOnlyBypass(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)
	rice := f.addProduct(t, "Rice", 60)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}})

	// Drivers cannot force even on their own orders.
	_, err := f.orderSv.Assign(context.Background(), admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)
	_, err = f.orderSv.ForceStatus(context.Background(), driver, order.ID.Hex(), models.StatusInTransit)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	// Admin can jump straight past the table.
	forced, err := f.orderSv.ForceStatus(context.Background(), admin, order.ID.Hex(), models.StatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, forced.Status)
}

func TestGetOrder_Scoping(t *testing.T) {
	f := newFixture()
	customer := f.registerUser(t, "asha", models.RoleCustomer)
	stranger := f.registerUser(t, "meena", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	rice := f.addProduct(t, "Rice", 60)
	order := f.placeOrder(t, customer, []services.OrderItemInput{{ProductID: rice.ID.Hex(), Quantity: 1}})

	_, err := f.orderSv.Get(context.Background(), customer, order.ID.Hex())
	assert.NoError(t, err)
	_, err = f.orderSv.Get(context.Background(), admin, order.ID.Hex())
	assert.NoError(t, err)
	_, err = f.orderSv.Get(context.Background(), stranger, order.ID.Hex())
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

// Full happy path from registration to settled delivery.
func TestEndToEndDeliveryScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customer := f.registerUser(t, "asha", models.RoleCustomer)
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)

	rice := f.addProduct(t, "Rice 5kg", 60)
	oil := f.addProduct(t, "Oil 1l", 40)

	order := f.placeOrder(t, customer, []services.OrderItemInput{
		{ProductID: rice.ID.Hex(), Quantity: 2},
		{ProductID: oil.ID.Hex(), Quantity: 1},
	})
	require.Equal(t, 160.0, order.TotalAmount)
	require.Equal(t, models.StatusPending, order.Status)

	assigned, err := f.orderSv.Assign(ctx, admin, order.ID.Hex(), driver.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAssigned, assigned.Status)

	scan, err := f.orderSv.ScanVerify(ctx, driver, order.ID.Hex(), order.PackageCode)
	require.NoError(t, err)
	require.True(t, scan.Valid)

	delivered, err := f.orderSv.ConfirmDelivery(ctx, driver, order.ID.Hex(), services.ConfirmDeliveryInput{
		Scanned:       true,
		ScannedCode:   order.PackageCode,
		PaymentMethod: models.PaymentCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)
	assert.Equal(t, models.PaymentUnpaid, delivered.PaymentStatus)

	uid, _ := primitive.ObjectIDFromHex(driver.ID)
	profile, err := f.profiles.FindByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalDeliveries)
	assert.InDelta(t, 16.0, profile.TotalEarnings, 1e-9)
}

func TestDeactivateUser_Idempotent(t *testing.T) {
	f := newFixture()
	admin := f.registerUser(t, "boss", models.RoleAdmin)
	driver := f.registerUser(t, "ravi", models.RoleDeliveryBoy)

	require.NoError(t, f.admin.DeactivateUser(context.Background(), admin, driver.ID))
	// Second deactivation is a no-op, not an error.
	require.NoError(t, f.admin.DeactivateUser(context.Background(), admin, driver.ID))

	uid, _ := primitive.ObjectIDFromHex(driver.ID)
	u, err := f.users.FindByID(context.Background(), uid)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}
