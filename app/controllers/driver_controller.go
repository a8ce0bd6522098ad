package controllers

import (
	"dukaan/app/services"
	"dukaan/pkg/ctx"
	"dukaan/pkg/response"
)

type DriverController struct {
	drivers *services.DriverService
}

func NewDriverController(drivers *services.DriverService) *DriverController {
	return &DriverController{drivers: drivers}
}

func (dc *DriverController) Profile(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	profile, err := dc.drivers.Profile(c.Context(), p.ID)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(profile)
}

func (dc *DriverController) UpdateProfile(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	profile, err := dc.drivers.UpdateProfile(c.Context(), p.ID, in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(profile)
}

func (dc *DriverController) SetAvailability(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var body struct {
		Available bool `json:"available"`
	}
	if !c.BindJSON(&body) {
		return
	}
	profile, err := dc.drivers.SetAvailability(c.Context(), p.ID, body.Available)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(profile)
}

func (dc *DriverController) UpdateLocation(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var body struct {
		Latitude  float64 `json:"latitude" validate:"required,numeric"`
		Longitude float64 `json:"longitude" validate:"required,numeric"`
	}
	if !c.BindJSON(&body) {
		return
	}
	if err := dc.drivers.UpdateLocation(c.Context(), p.ID, body.Latitude, body.Longitude); err != nil {
		c.AppError(err)
		return
	}
	c.Success(map[string]string{"message": "Location updated"})
}

func (dc *DriverController) Leaderboard(c *ctx.Context) {
	rows, err := dc.drivers.Leaderboard(c.Context(), c.IntQuery("top", 10, 1, 100))
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(rows)
}

func (dc *DriverController) Earnings(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	page := c.IntQuery("page", 1, 1, 10000)
	limit := c.IntQuery("limit", 20, 1, 100)
	txs, total, err := dc.drivers.Earnings(c.Context(), p.ID, page, limit)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Paginated(txs, response.NewPagination(page, limit, total))
}
