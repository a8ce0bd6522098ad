package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/app/policy"
	"dukaan/pkg/apperr"
)

// AdminService covers the back-office surface: user/driver management and
// the revenue dashboard.
type AdminService struct {
	users        UserRepository
	orders       OrderRepository
	transactions TransactionRepository
	auth         *AuthService
}

func NewAdminService(users UserRepository, orders OrderRepository, transactions TransactionRepository, auth *AuthService) *AdminService {
	return &AdminService{users: users, orders: orders, transactions: transactions, auth: auth}
}

// ListUsers pages through users of one role (or all when role is empty).
func (s *AdminService) ListUsers(ctx context.Context, p policy.Principal, role models.Role, page, limit int) ([]models.User, int64, error) {
	if err := policy.Authorize(p, policy.ManageDrivers, nil); err != nil {
		return nil, 0, err
	}
	if role != "" && !role.Valid() {
		return nil, 0, apperr.Validation("Unknown role")
	}
	return s.users.List(ctx, role, page, limit)
}

// CreateDriver registers a delivery partner on behalf of an admin. The
// driver gets a profile exactly as with self-registration.
func (s *AdminService) CreateDriver(ctx context.Context, p policy.Principal, in RegisterInput) (*AuthResult, error) {
	if err := policy.Authorize(p, policy.ManageDrivers, nil); err != nil {
		return nil, err
	}
	in.Role = models.RoleDeliveryBoy
	return s.auth.Register(ctx, in)
}

// UpdateDriverInput is the admin-editable slice of a driver account.
// Vehicle and license details stay on the driver's own profile surface.
type UpdateDriverInput struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" validate:"nullable,regex=^[0-9]{10}$"`
}

// UpdateDriver edits a delivery partner's contact details.
func (s *AdminService) UpdateDriver(ctx context.Context, p policy.Principal, driverID string, in UpdateDriverInput) (*models.User, error) {
	if err := policy.Authorize(p, policy.ManageDrivers, nil); err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return nil, apperr.NotFound("Driver not found")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("Driver not found")
		}
		return nil, apperr.Wrap(err, "find driver")
	}
	if user.Role != models.RoleDeliveryBoy {
		return nil, apperr.NotFound("Driver not found")
	}

	user.Name = in.Name
	user.Phone = in.Phone
	if err := s.users.Update(ctx, user); err != nil {
		if err == ErrDuplicate {
			return nil, apperr.Conflict("Phone number already in use")
		}
		return nil, apperr.Wrap(err, "update driver")
	}
	return user, nil
}

// DeactivateUser soft-deletes a user. Idempotent: deactivating an already
// inactive user succeeds with no error.
func (s *AdminService) DeactivateUser(ctx context.Context, p policy.Principal, userID string) error {
	if err := policy.Authorize(p, policy.ManageDrivers, nil); err != nil {
		return err
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperr.NotFound("User not found")
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("User not found")
		}
		return apperr.Wrap(err, "deactivate user")
	}
	return nil
}

// DriverTransactions pages through the settlement records of one driver.
func (s *AdminService) DriverTransactions(ctx context.Context, p policy.Principal, driverID string, page, limit int) ([]models.Transaction, int64, error) {
	if err := policy.Authorize(p, policy.ManageDrivers, nil); err != nil {
		return nil, 0, err
	}
	id, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return nil, 0, apperr.NotFound("Driver not found")
	}
	return s.transactions.ListByDriver(ctx, id, page, limit)
}

// DashboardStats is the admin revenue overview. Every number is scoped to
// the requested period.
type DashboardStats struct {
	OrdersByStatus  map[models.OrderStatus]int64 `json:"ordersByStatus"`
	RevenueByMethod []MethodRevenue              `json:"revenueByMethod"`
	RevenueByDay    []DailyRevenue               `json:"revenueByDay"`
	UnpaidOrders    int64                        `json:"unpaidOrders"`
	ActiveDrivers   int64                        `json:"activeDrivers"`
}

// Dashboard aggregates order counts, revenue breakdowns, the outstanding
// cash-on-delivery settlements and the active driver headcount.
func (s *AdminService) Dashboard(ctx context.Context, p policy.Principal, days int) (*DashboardStats, error) {
	if err := policy.Authorize(p, policy.ManageDrivers, nil); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	byStatus, err := s.orders.CountByStatus(ctx, since)
	if err != nil {
		return nil, apperr.Wrap(err, "count orders")
	}
	byMethod, err := s.orders.RevenueByMethod(ctx, since)
	if err != nil {
		return nil, apperr.Wrap(err, "revenue by method")
	}
	byDay, err := s.orders.RevenueByDay(ctx, days)
	if err != nil {
		return nil, apperr.Wrap(err, "revenue by day")
	}
	unpaid, err := s.orders.UnpaidCount(ctx, since)
	if err != nil {
		return nil, apperr.Wrap(err, "unpaid count")
	}
	// The roster listing already filters drivers to isActive.
	_, driverCount, err := s.users.List(ctx, models.RoleDeliveryBoy, 1, 1)
	if err != nil {
		return nil, apperr.Wrap(err, "count drivers")
	}

	return &DashboardStats{
		OrdersByStatus:  byStatus,
		RevenueByMethod: byMethod,
		RevenueByDay:    byDay,
		UnpaidOrders:    unpaid,
		ActiveDrivers:   driverCount,
	}, nil
}
