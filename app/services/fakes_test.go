package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/app/services"
)

// In-memory repository fakes. They mirror the conditional-update semantics
// of the Mongo implementations so the services are exercised against the
// same atomicity contract.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if (u.Email != "" && ex.Email == u.Email) || (u.Phone != "" && ex.Phone == u.Phone) {
			return services.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, services.ErrNotFound
}

func (r *fakeUserRepo) FindByIdentifier(_ context.Context, ident string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if (u.Email != "" && u.Email == ident) || (u.Phone != "" && u.Phone == ident) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (r *fakeUserRepo) FindByResetDigest(_ context.Context, digest string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetPasswordToken == digest && u.ResetPasswordExpiry != nil && u.ResetPasswordExpiry.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return services.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return services.ErrNotFound
	}
	u.IsActive = false
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, role models.Role, page, limit int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if role != "" && u.Role != role {
			continue
		}
		if role == models.RoleDeliveryBoy && !u.IsActive {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.ResetPasswordExpiry != nil && u.ResetPasswordExpiry.Before(now) {
			u.ResetPasswordToken = ""
			u.ResetPasswordExpiry = nil
			n++
		}
	}
	return n, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]*models.DeliveryProfile // keyed by user id
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[primitive.ObjectID]*models.DeliveryProfile{}}
}

func (r *fakeProfileRepo) Create(_ context.Context, p *models.DeliveryProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.DeliveryProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, services.ErrNotFound
}

func (r *fakeProfileRepo) Update(_ context.Context, p *models.DeliveryProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; !ok {
		return services.ErrNotFound
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeProfileRepo) RecordDelivery(_ context.Context, userID primitive.ObjectID, earnings float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return services.ErrNotFound
	}
	p.TotalDeliveries++
	p.TotalEarnings += earnings
	return nil
}

func (r *fakeProfileRepo) Leaderboard(_ context.Context, topN int) ([]models.DeliveryProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DeliveryProfile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalDeliveries > out[j].TotalDeliveries
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

type fakeAddressRepo struct {
	mu        sync.Mutex
	addresses map[primitive.ObjectID]*models.Address
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{addresses: map[primitive.ObjectID]*models.Address{}}
}

func (r *fakeAddressRepo) Create(_ context.Context, a *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.addresses[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, services.ErrNotFound
}

func (r *fakeAddressRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAddressRepo) Update(_ context.Context, a *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.addresses[a.ID]; !ok {
		return services.ErrNotFound
	}
	cp := *a
	r.addresses[a.ID] = &cp
	return nil
}

func (r *fakeAddressRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return services.ErrNotFound
	}
	delete(r.addresses, id)
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[primitive.ObjectID]*models.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, services.ErrNotFound
}

func (r *fakeProductRepo) List(_ context.Context, category string, page, limit int) ([]models.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.products {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return services.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) SetInStock(_ context.Context, id primitive.ObjectID, inStock bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return services.ErrNotFound
	}
	p.InStock = inStock
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*models.Order{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = primitive.NewObjectID()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, services.ErrNotFound
}

func (r *fakeOrderRepo) ListByCustomer(_ context.Context, customerID primitive.ObjectID, f services.OrderFilter) ([]models.Order, int64, error) {
	return r.filter(func(o *models.Order) bool {
		return o.CustomerID == customerID && (f.Status == "" || o.Status == f.Status)
	})
}

func (r *fakeOrderRepo) ListByDriver(_ context.Context, driverID primitive.ObjectID, f services.OrderFilter) ([]models.Order, int64, error) {
	return r.filter(func(o *models.Order) bool {
		return o.DeliveryBoy != nil && *o.DeliveryBoy == driverID && (f.Status == "" || o.Status == f.Status)
	})
}

func (r *fakeOrderRepo) List(_ context.Context, f services.OrderFilter) ([]models.Order, int64, error) {
	return r.filter(func(o *models.Order) bool {
		return f.Status == "" || o.Status == f.Status
	})
}

func (r *fakeOrderRepo) filter(keep func(*models.Order) bool) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) Assign(_ context.Context, orderID, driverID primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != models.StatusPending {
		return nil, services.ErrNotFound
	}
	d := driverID
	o.DeliveryBoy = &d
	o.Status = models.StatusAssigned
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) SetScanned(_ context.Context, orderID primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return services.ErrNotFound
	}
	t := at
	o.ScannedAt = &t
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != from {
		return nil, services.ErrNotFound
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) MarkDelivered(_ context.Context, orderID primitive.ObjectID, method models.PaymentMethod, at time.Time) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status.Terminal() {
		return nil, services.ErrNotFound
	}
	t := at
	o.Status = models.StatusDelivered
	o.DeliveredAt = &t
	o.PaymentMethod = method
	o.PaymentStatus = models.DerivePaymentStatus(method)
	o.UpdatedAt = at
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) ForceStatus(_ context.Context, orderID primitive.ObjectID, to models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, services.ErrNotFound
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) CountByStatus(_ context.Context, since time.Time) (map[models.OrderStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.OrderStatus]int64{}
	for _, o := range r.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		out[o.Status]++
	}
	return out, nil
}

func (r *fakeOrderRepo) RevenueByMethod(_ context.Context, since time.Time) ([]services.MethodRevenue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg := map[models.PaymentMethod]*services.MethodRevenue{}
	for _, o := range r.orders {
		if o.Status != models.StatusDelivered {
			continue
		}
		if o.DeliveredAt == nil || o.DeliveredAt.Before(since) {
			continue
		}
		row, ok := agg[o.PaymentMethod]
		if !ok {
			row = &services.MethodRevenue{Method: o.PaymentMethod}
			agg[o.PaymentMethod] = row
		}
		row.Total += o.TotalAmount
		row.Count++
	}
	var out []services.MethodRevenue
	for _, row := range agg {
		out = append(out, *row)
	}
	return out, nil
}

func (r *fakeOrderRepo) RevenueByDay(_ context.Context, days int) ([]services.DailyRevenue, error) {
	return nil, nil
}

// Backdate shifts an order's timestamps so window-scoped aggregations can
// be exercised.
func (r *fakeOrderRepo) Backdate(id primitive.ObjectID, to time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.CreatedAt = to
		if o.DeliveredAt != nil {
			o.DeliveredAt = &to
		}
	}
}

func (r *fakeOrderRepo) UnpaidCount(_ context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.PaymentStatus != models.PaymentUnpaid {
			continue
		}
		if o.DeliveredAt == nil || o.DeliveredAt.Before(since) {
			continue
		}
		n++
	}
	return n, nil
}

type fakeTransactionRepo struct {
	mu  sync.Mutex
	txs map[primitive.ObjectID]*models.Transaction // keyed by order id
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{txs: map[primitive.ObjectID]*models.Transaction{}}
}

func (r *fakeTransactionRepo) Create(_ context.Context, t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[t.OrderID]; ok {
		return services.ErrDuplicate
	}
	t.ID = primitive.NewObjectID()
	cp := *t
	r.txs[t.OrderID] = &cp
	return nil
}

func (r *fakeTransactionRepo) ListByDriver(_ context.Context, driverID primitive.ObjectID, page, limit int) ([]models.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.txs {
		if t.DeliveryBoy != nil && *t.DeliveryBoy == driverID {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

// recordingNotifier captures reset tokens handed out of band.
type recordingNotifier struct {
	mu     sync.Mutex
	tokens map[string]string // user id -> token
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{tokens: map[string]string{}}
}

func (n *recordingNotifier) SendResetToken(user *models.User, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[user.ID.Hex()] = token
}

func (n *recordingNotifier) tokenFor(userID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tokens[userID]
}
