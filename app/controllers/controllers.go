// Package controllers holds the HTTP handlers. Controllers are thin: bind,
// resolve the caller, call a service, map the result. All domain rules live
// in app/services and app/policy.
package controllers

import (
	"dukaan/app/models"
	"dukaan/app/policy"
	"dukaan/pkg/ctx"
	"dukaan/pkg/middleware"
	"dukaan/pkg/response"
)

// caller returns the authenticated principal for policy checks. Responds
// 401 and returns false when the auth middleware did not run.
func caller(c *ctx.Context) (policy.Principal, bool) {
	p, ok := middleware.PrincipalFromCtx(c.Context())
	if !ok {
		response.Unauthorized(c.W)
		return policy.Principal{}, false
	}
	return policy.Principal{ID: p.UserID, Role: models.Role(p.Role)}, true
}
