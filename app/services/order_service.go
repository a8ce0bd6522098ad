package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/app/policy"
	"dukaan/pkg/apperr"
	"dukaan/pkg/event"
	"dukaan/pkg/metrics"
)

// CommissionRate is the share of an order's total credited to the driver on
// a confirmed delivery.
const CommissionRate = 0.10

// Event names fired by OrderService. internal/server wires listeners
// (WebSocket broadcast) against these.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDelivered     = "order.delivered"
)

// OrderService owns the order lifecycle: creation, assignment, scan
// verification, delivery confirmation and the guarded status transitions.
type OrderService struct {
	orders       OrderRepository
	products     ProductRepository
	addresses    AddressRepository
	users        UserRepository
	profiles     ProfileRepository
	transactions TransactionRepository
}

func NewOrderService(
	orders OrderRepository,
	products ProductRepository,
	addresses AddressRepository,
	users UserRepository,
	profiles ProfileRepository,
	transactions TransactionRepository,
) *OrderService {
	return &OrderService{
		orders:       orders,
		products:     products,
		addresses:    addresses,
		users:        users,
		profiles:     profiles,
		transactions: transactions,
	}
}

// OrderItemInput is one (product, quantity) pair of a new order.
type OrderItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,numeric,gte=1"`
}

// CreateOrderInput is the validated order-creation payload.
type CreateOrderInput struct {
	Items     []OrderItemInput `json:"items" validate:"required"`
	AddressID string           `json:"addressId" validate:"required"`
}

// Create places a new order for the calling customer. Product name and price
// are snapshotted into the order items so later catalog edits never change
// historical totals.
func (s *OrderService) Create(ctx context.Context, p policy.Principal, in CreateOrderInput) (*models.Order, error) {
	if err := policy.Authorize(p, policy.CreateOrder, nil); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("Order must contain at least one item")
	}

	customerID, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, apperr.Authentication("Invalid principal")
	}

	addressID, err := primitive.ObjectIDFromHex(in.AddressID)
	if err != nil {
		return nil, apperr.NotFound("Address not found")
	}
	address, err := s.addresses.FindByID(ctx, addressID)
	if err != nil || address.UserID != customerID {
		return nil, apperr.NotFound("Address not found")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, apperr.Validation("Item quantity must be at least 1")
		}
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return nil, apperr.NotFound("Product not found")
		}
		snap, err := s.snapshotProduct(ctx, pid, it.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, snap)
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:   models.NewOrderNumber(),
		CustomerID:    customerID,
		Items:         items,
		TotalAmount:   models.ComputeTotal(items),
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		AddressID:     addressID,
		PackageCode:   models.NewPackageCode(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Wrap(err, "create order")
	}

	metrics.OrdersCreated.Inc()
	event.FireAsync(EventOrderCreated, order)
	return order, nil
}

// snapshotProduct resolves a product and captures its current name and price
// into an immutable order item.
func (s *OrderService) snapshotProduct(ctx context.Context, id primitive.ObjectID, quantity int) (models.OrderItem, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return models.OrderItem{}, apperr.NotFound("Product not found")
	}
	if !product.InStock {
		return models.OrderItem{}, apperr.NotFound("Product is out of stock")
	}
	return models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	}, nil
}

// Get returns an order the principal is allowed to see.
func (s *OrderService) Get(ctx context.Context, p policy.Principal, orderID string) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.ViewOrder, orderCtx(order)); err != nil {
		return nil, err
	}
	return order, nil
}

// TrackingSummary is the customer-facing delivery progress view. It omits
// item and payment detail on purpose.
type TrackingSummary struct {
	OrderNumber string             `json:"orderNumber"`
	Status      models.OrderStatus `json:"status"`
	ScannedAt   *time.Time         `json:"scannedAt,omitempty"`
	DeliveredAt *time.Time         `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Track returns the delivery progress of an order the principal may see.
func (s *OrderService) Track(ctx context.Context, p policy.Principal, orderID string) (*TrackingSummary, error) {
	order, err := s.Get(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	return &TrackingSummary{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		ScannedAt:   order.ScannedAt,
		DeliveredAt: order.DeliveredAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, nil
}

// ListForPrincipal lists orders scoped to the caller's role: customers see
// their own, drivers their assignments, admins everything.
func (s *OrderService) ListForPrincipal(ctx context.Context, p policy.Principal, f OrderFilter) ([]models.Order, int64, error) {
	id, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, 0, apperr.Authentication("Invalid principal")
	}
	switch p.Role {
	case models.RoleCustomer:
		return s.orders.ListByCustomer(ctx, id, f)
	case models.RoleDeliveryBoy:
		return s.orders.ListByDriver(ctx, id, f)
	case models.RoleAdmin:
		return s.orders.List(ctx, f)
	}
	return nil, 0, apperr.Authorization("You are not allowed to perform this action")
}

// Assign puts an active driver on a pending order (admin only).
func (s *OrderService) Assign(ctx context.Context, p policy.Principal, orderID, driverID string) (*models.Order, error) {
	if err := policy.Authorize(p, policy.AssignDriver, nil); err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, apperr.NotFound("Order not found")
	}
	did, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return nil, apperr.NotFound("Delivery partner not found")
	}

	driver, err := s.users.FindByID(ctx, did)
	if err != nil || driver.Role != models.RoleDeliveryBoy || !driver.IsActive {
		return nil, apperr.NotFound("Delivery partner not found")
	}

	order, err := s.orders.Assign(ctx, oid, did)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("Order not found or not pending")
		}
		return nil, apperr.Wrap(err, "assign order")
	}

	metrics.OrderTransitions.WithLabelValues(string(models.StatusAssigned)).Inc()
	event.FireAsync(EventOrderStatusChanged, order)
	return order, nil
}

// ScanResult is the outcome of a package-code scan.
type ScanResult struct {
	Valid     bool       `json:"valid"`
	ScannedAt *time.Time `json:"scannedAt,omitempty"`
}

// ScanVerify checks a scanned code against the order's package code or order
// number. A successful scan records scannedAt but never changes status; it is
// the precondition gate for ConfirmDelivery.
func (s *OrderService) ScanVerify(ctx context.Context, p policy.Principal, orderID, code string) (*ScanResult, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.UpdateStatus, orderCtx(order)); err != nil {
		return nil, err
	}

	if !order.MatchesScan(code) {
		metrics.ScanFailures.Inc()
		return &ScanResult{Valid: false}, nil
	}

	now := time.Now()
	if err := s.orders.SetScanned(ctx, order.ID, now); err != nil {
		return nil, apperr.Wrap(err, "record scan")
	}
	return &ScanResult{Valid: true, ScannedAt: &now}, nil
}

// ConfirmDeliveryInput is the validated delivery-confirmation payload.
type ConfirmDeliveryInput struct {
	Scanned       bool                 `json:"scanned"`
	ScannedCode   string               `json:"scannedCode"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,in=cash,upi,card,cod,other"`
}

// ConfirmDelivery completes an order. The caller must assert the scan, and
// the server independently requires either a recorded scannedAt or a matching
// code in the same request. The status update is a single conditional commit,
// so a client retry after success returns ConflictError instead of accruing
// driver earnings twice.
func (s *OrderService) ConfirmDelivery(ctx context.Context, p policy.Principal, orderID string, in ConfirmDeliveryInput) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.ConfirmDelivery, orderCtx(order)); err != nil {
		return nil, err
	}

	if !in.Scanned {
		return nil, apperr.Validation("Package must be scanned before confirming delivery")
	}
	if order.ScannedAt == nil && !order.MatchesScan(in.ScannedCode) {
		metrics.ScanFailures.Inc()
		return nil, apperr.Validation("Scanned code does not match this order")
	}
	if !in.PaymentMethod.Valid() {
		return nil, apperr.Validation("Unknown payment method")
	}

	now := time.Now()
	delivered, err := s.orders.MarkDelivered(ctx, order.ID, in.PaymentMethod, now)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.Conflict("Order is already completed")
		}
		return nil, apperr.Wrap(err, "mark delivered")
	}

	s.settleDelivery(ctx, delivered)

	metrics.DeliveriesConfirmed.Inc()
	metrics.OrderTransitions.WithLabelValues(string(models.StatusDelivered)).Inc()
	event.FireAsync(EventOrderDelivered, delivered)
	return delivered, nil
}

// settleDelivery applies the post-delivery side effects: driver earnings
// accrual and the transaction read-model record. The earnings increment is a
// single atomic update; the transaction insert is deduplicated by a unique
// index on the order reference.
func (s *OrderService) settleDelivery(ctx context.Context, order *models.Order) {
	if order.DeliveryBoy != nil {
		earnings := order.TotalAmount * CommissionRate
		if err := s.profiles.RecordDelivery(ctx, *order.DeliveryBoy, earnings); err != nil {
			// The order is already delivered; the accrual gap is logged and
			// left to reconciliation rather than rolled back.
			logError("order: ledger accrual failed", order, err)
		}
	}

	tx := &models.Transaction{
		OrderID:     order.ID,
		DeliveryBoy: order.DeliveryBoy,
		Amount:      order.TotalAmount,
		Method:      order.PaymentMethod,
		Status:      order.PaymentStatus,
		CreatedAt:   time.Now(),
	}
	if err := s.transactions.Create(ctx, tx); err != nil && err != ErrDuplicate {
		logError("order: transaction record failed", order, err)
	}
}

// UpdateStatus applies a guarded transition. The target must be reachable
// from the current status in the lifecycle table; use ForceStatus to bypass.
func (s *OrderService) UpdateStatus(ctx context.Context, p policy.Principal, orderID string, next models.OrderStatus) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(p, policy.UpdateStatus, orderCtx(order)); err != nil {
		return nil, err
	}

	if !next.Valid() {
		return nil, apperr.Validation("Unknown order status")
	}
	if next == models.StatusDelivered {
		return nil, apperr.Validation("Use delivery confirmation to complete an order")
	}
	if !order.Status.CanTransition(next) {
		return nil, apperr.Conflict("Cannot move order from " + string(order.Status) + " to " + string(next))
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.Conflict("Order status changed concurrently, retry")
		}
		return nil, apperr.Wrap(err, "update status")
	}

	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	event.FireAsync(EventOrderStatusChanged, updated)
	return updated, nil
}

// Cancel is sugar for the guarded transition to cancelled.
func (s *OrderService) Cancel(ctx context.Context, p policy.Principal, orderID string) (*models.Order, error) {
	return s.UpdateStatus(ctx, p, orderID, models.StatusCancelled)
}

// ForceStatus is the operator override: it sets any status directly,
// bypassing the transition table. Admin only.
func (s *OrderService) ForceStatus(ctx context.Context, p policy.Principal, orderID string, next models.OrderStatus) (*models.Order, error) {
	if err := policy.Authorize(p, policy.ForceStatus, nil); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, apperr.Validation("Unknown order status")
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.ForceStatus(ctx, order.ID, next)
	if err != nil {
		return nil, apperr.Wrap(err, "force status")
	}

	metrics.OrderTransitions.WithLabelValues(string(next)).Inc()
	event.FireAsync(EventOrderStatusChanged, updated)
	return updated, nil
}

func (s *OrderService) find(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, apperr.NotFound("Order not found")
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, apperr.Wrap(err, "find order")
	}
	return order, nil
}

func orderCtx(o *models.Order) *policy.OrderContext {
	oc := &policy.OrderContext{CustomerID: o.CustomerID.Hex()}
	if o.DeliveryBoy != nil {
		oc.DeliveryBoy = o.DeliveryBoy.Hex()
	}
	return oc
}
