package controllers

import (
	"dukaan/app/services"
	"dukaan/pkg/ctx"
)

type CustomerController struct {
	customers *services.CustomerService
}

func NewCustomerController(customers *services.CustomerService) *CustomerController {
	return &CustomerController{customers: customers}
}

func (cc *CustomerController) StoreAddress(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.AddressInput
	if !c.BindJSON(&in) {
		return
	}
	address, err := cc.customers.CreateAddress(c.Context(), p.ID, in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Created(address)
}

func (cc *CustomerController) Addresses(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	addresses, err := cc.customers.ListAddresses(c.Context(), p.ID)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(addresses)
}

func (cc *CustomerController) UpdateAddress(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.AddressInput
	if !c.BindJSON(&in) {
		return
	}
	address, err := cc.customers.UpdateAddress(c.Context(), p.ID, c.Param("id"), in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(address)
}

func (cc *CustomerController) DeleteAddress(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	if err := cc.customers.DeleteAddress(c.Context(), p.ID, c.Param("id")); err != nil {
		c.AppError(err)
		return
	}
	c.Success(map[string]string{"message": "Address removed"})
}
