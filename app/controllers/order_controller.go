package controllers

import (
	"dukaan/app/models"
	"dukaan/app/services"
	"dukaan/pkg/ctx"
	"dukaan/pkg/response"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (oc *OrderController) Store(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.CreateOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.Create(c.Context(), p, in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Created(order)
}

func (oc *OrderController) Show(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	order, err := oc.orders.Get(c.Context(), p, c.Param("id"))
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(order)
}

// Track returns the delivery progress summary for an order.
func (oc *OrderController) Track(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	summary, err := oc.orders.Track(c.Context(), p, c.Param("id"))
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(summary)
}

// Index lists orders scoped by the caller's role: customers see their own,
// drivers their assignments, admins everything.
func (oc *OrderController) Index(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	f := services.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Page:   c.IntQuery("page", 1, 1, 10000),
		Limit:  c.IntQuery("limit", 20, 1, 100),
	}
	orders, total, err := oc.orders.ListForPrincipal(c.Context(), p, f)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Paginated(orders, response.NewPagination(f.Page, f.Limit, total))
}

func (oc *OrderController) Assign(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var body struct {
		DriverID string `json:"driverId" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	order, err := oc.orders.Assign(c.Context(), p, c.Param("id"), body.DriverID)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(order)
}

// Scan verifies a scanned package code. An invalid code is a normal 200
// with valid=false so handheld clients can re-prompt without error handling.
func (oc *OrderController) Scan(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var body struct {
		Code string `json:"code" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	res, err := oc.orders.ScanVerify(c.Context(), p, c.Param("id"), body.Code)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(res)
}

func (oc *OrderController) Confirm(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.ConfirmDeliveryInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.ConfirmDelivery(c.Context(), p, c.Param("id"), in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	order, err := oc.orders.UpdateStatus(c.Context(), p, c.Param("id"), body.Status)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) Cancel(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	order, err := oc.orders.Cancel(c.Context(), p, c.Param("id"))
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(order)
}

// Force sets a status outside the transition table. Admin only; logged by
// the service for audit.
func (oc *OrderController) Force(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	order, err := oc.orders.ForceStatus(c.Context(), p, c.Param("id"), body.Status)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(order)
}
