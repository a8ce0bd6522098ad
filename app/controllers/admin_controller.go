package controllers

import (
	"dukaan/app/models"
	"dukaan/app/services"
	"dukaan/pkg/ctx"
	"dukaan/pkg/response"
)

type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

func (ac *AdminController) Users(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	page := c.IntQuery("page", 1, 1, 10000)
	limit := c.IntQuery("limit", 20, 1, 100)
	users, total, err := ac.admin.ListUsers(c.Context(), p, models.Role(c.Query("role")), page, limit)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Paginated(users, response.NewPagination(page, limit, total))
}

func (ac *AdminController) StoreDriver(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.admin.CreateDriver(c.Context(), p, in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Created(res)
}

func (ac *AdminController) UpdateDriver(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.UpdateDriverInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := ac.admin.UpdateDriver(c.Context(), p, c.Param("id"), in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(user)
}

func (ac *AdminController) DeactivateUser(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	if err := ac.admin.DeactivateUser(c.Context(), p, c.Param("id")); err != nil {
		c.AppError(err)
		return
	}
	c.Success(map[string]string{"message": "User deactivated"})
}

func (ac *AdminController) DriverTransactions(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	page := c.IntQuery("page", 1, 1, 10000)
	limit := c.IntQuery("limit", 20, 1, 100)
	txs, total, err := ac.admin.DriverTransactions(c.Context(), p, c.Param("id"), page, limit)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Paginated(txs, response.NewPagination(page, limit, total))
}

func (ac *AdminController) Dashboard(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	stats, err := ac.admin.Dashboard(c.Context(), p, c.IntQuery("days", 7, 1, 90))
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(stats)
}
