// Package policy decides which actions a principal may perform. It is the
// single place role checks live — handlers and services never compare role
// strings themselves.
package policy

import (
	"dukaan/app/models"
	"dukaan/pkg/apperr"
)

// Action enumerates everything the API lets a principal attempt.
type Action string

const (
	ViewOrder       Action = "order.view"
	CreateOrder     Action = "order.create"
	AssignDriver    Action = "order.assign"
	UpdateStatus    Action = "order.update_status"
	ConfirmDelivery Action = "order.confirm_delivery"
	ForceStatus     Action = "order.force_status"
	ManageCatalog   Action = "catalog.manage"
	ManageDrivers   Action = "drivers.manage"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role models.Role
}

// OrderContext carries the order-scoped facts the rules need. Nil for
// actions that are not order-scoped.
type OrderContext struct {
	CustomerID  string
	DeliveryBoy string // empty until assigned
}

// Authorize returns nil if p may perform action, or an AuthorizationError.
// The switch over roles is exhaustive; an unknown role denies everything.
func Authorize(p Principal, action Action, order *OrderContext) error {
	if allowed(p, action, order) {
		return nil
	}
	return apperr.Authorization("You are not allowed to perform this action")
}

func allowed(p Principal, action Action, order *OrderContext) bool {
	switch action {
	case ViewOrder:
		switch p.Role {
		case models.RoleAdmin:
			return true
		case models.RoleCustomer:
			return order != nil && order.CustomerID == p.ID
		case models.RoleDeliveryBoy:
			return order != nil && order.DeliveryBoy == p.ID
		}
		return false

	case CreateOrder:
		return p.Role == models.RoleCustomer

	case AssignDriver:
		return p.Role == models.RoleAdmin

	case UpdateStatus:
		switch p.Role {
		case models.RoleAdmin:
			return true
		case models.RoleDeliveryBoy:
			return order != nil && order.DeliveryBoy == p.ID
		}
		return false

	case ConfirmDelivery:
		// Driver-only; admin cannot confirm on a driver's behalf.
		return p.Role == models.RoleDeliveryBoy &&
			order != nil && order.DeliveryBoy == p.ID

	case ForceStatus:
		// Operator override that bypasses the transition table.
		return p.Role == models.RoleAdmin

	case ManageCatalog, ManageDrivers:
		return p.Role == models.RoleAdmin
	}
	return false
}
