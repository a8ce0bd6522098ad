package controllers

import (
	"dukaan/app/services"
	"dukaan/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ac.auth.Register(c.Context(), in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Created(res)
}

func (ac *AuthController) Login(c *ctx.Context) {
	var body struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	res, err := ac.auth.Login(c.Context(), body.Identifier, body.Password)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(res)
}

func (ac *AuthController) Refresh(c *ctx.Context) {
	var body struct {
		Token string `json:"token" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	res, err := ac.auth.Refresh(c.Context(), body.Token)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(res)
}

func (ac *AuthController) Me(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	user, err := ac.auth.Me(c.Context(), p.ID)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(user)
}

// ForgotPassword always answers with the same message; the token goes out
// through mail or SMS, never through this response.
func (ac *AuthController) ForgotPassword(c *ctx.Context) {
	var body struct {
		Identifier string `json:"identifier" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	msg, err := ac.auth.RequestPasswordReset(c.Context(), body.Identifier)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(map[string]string{"message": msg})
}

func (ac *AuthController) ResetPassword(c *ctx.Context) {
	var body struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if !c.BindJSON(&body) {
		return
	}
	if err := ac.auth.ResetPassword(c.Context(), body.Token, body.Password); err != nil {
		c.AppError(err)
		return
	}
	c.Success(map[string]string{"message": "Password updated"})
}
