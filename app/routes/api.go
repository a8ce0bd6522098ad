// Package routes wires the HTTP surface: the REST API, the GraphQL
// endpoint, the order-events websocket and the operational endpoints.
package routes

import (
	"net/http"
	"time"

	"dukaan/app/controllers"
	"dukaan/app/models"
	"dukaan/pkg/ctx"
	"dukaan/pkg/metrics"
	"dukaan/pkg/middleware"
	"dukaan/pkg/rbac"
	"dukaan/pkg/reqid"
	"dukaan/pkg/router"
	"dukaan/pkg/ws"
)

// Deps carries everything the route table needs. Controllers are built by
// the server bootstrap and injected here.
type Deps struct {
	Auth     *controllers.AuthController
	Orders   *controllers.OrderController
	Catalog  *controllers.CatalogController
	Customer *controllers.CustomerController
	Driver   *controllers.DriverController
	Admin    *controllers.AdminController

	// Resolve re-loads the token's user on every request so deactivated
	// accounts lose access immediately.
	Resolve middleware.UserResolver

	// GraphQL is the mounted /graphql handler, nil to disable.
	GraphQL http.Handler

	// OrderHub streams order lifecycle events to connected clients.
	OrderHub *ws.Hub
}

// RegisterAPI mounts the full route table onto r.
func RegisterAPI(r *router.Router, d Deps) {
	r.Use(middleware.Recovery, middleware.CORS)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(metrics.Middleware())

	r.HandleFunc("/metrics", metrics.Handler())
	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	api := r.Group("/api")

	// Unauthenticated surface, rate limited against credential stuffing.
	guest := api.Group("/auth", middleware.RateLimit(30, time.Minute))
	guest.Post("/register", "auth.register", ctx.Wrap(d.Auth.Register))
	guest.Post("/login", "auth.login", ctx.Wrap(d.Auth.Login))
	guest.Post("/refresh", "auth.refresh", ctx.Wrap(d.Auth.Refresh))
	guest.Post("/forgot-password", "auth.forgot", ctx.Wrap(d.Auth.ForgotPassword))
	guest.Post("/reset-password", "auth.reset", ctx.Wrap(d.Auth.ResetPassword))

	authed := api.Group("", middleware.Auth(d.Resolve))
	authed.Get("/me", "auth.me", ctx.Wrap(d.Auth.Me))

	// Catalog: browsing is public, management is admin-only.
	api.Get("/products", "products.index", ctx.Wrap(d.Catalog.Index))
	api.Get("/products/{id}", "products.show", ctx.Wrap(d.Catalog.Show))

	adminCatalog := authed.Group("/products", rbac.HasRole(string(models.RoleAdmin)))
	adminCatalog.Post("", "products.store", ctx.Wrap(d.Catalog.Store))
	adminCatalog.Put("/{id}", "products.update", ctx.Wrap(d.Catalog.Update))
	adminCatalog.Delete("/{id}", "products.destroy", ctx.Wrap(d.Catalog.Destroy))
	adminCatalog.Post("/{id}/image", "products.image", ctx.Wrap(d.Catalog.UploadImage))

	// Orders. Role checks beyond authentication happen in the policy layer
	// because most routes are shared across roles with different scoping.
	orders := authed.Group("/orders")
	orders.Post("", "orders.store", ctx.Wrap(d.Orders.Store))
	orders.Get("", "orders.index", ctx.Wrap(d.Orders.Index))
	orders.Get("/{id}", "orders.show", ctx.Wrap(d.Orders.Show))
	orders.Get("/{id}/track", "orders.track", ctx.Wrap(d.Orders.Track))
	orders.Post("/{id}/cancel", "orders.cancel", ctx.Wrap(d.Orders.Cancel))
	orders.Post("/{id}/assign", "orders.assign", ctx.Wrap(d.Orders.Assign),
		rbac.HasRole(string(models.RoleAdmin)))
	orders.Post("/{id}/scan", "orders.scan", ctx.Wrap(d.Orders.Scan),
		rbac.HasRole(string(models.RoleDeliveryBoy), string(models.RoleAdmin)))
	orders.Post("/{id}/confirm", "orders.confirm", ctx.Wrap(d.Orders.Confirm),
		rbac.HasRole(string(models.RoleDeliveryBoy)))
	orders.Patch("/{id}/status", "orders.status", ctx.Wrap(d.Orders.UpdateStatus),
		rbac.HasRole(string(models.RoleDeliveryBoy), string(models.RoleAdmin)))
	orders.Post("/{id}/force-status", "orders.force", ctx.Wrap(d.Orders.Force),
		rbac.HasRole(string(models.RoleAdmin)))

	// Customer self-service.
	customer := authed.Group("/customer", rbac.HasRole(string(models.RoleCustomer)))
	customer.Post("/addresses", "addresses.store", ctx.Wrap(d.Customer.StoreAddress))
	customer.Get("/addresses", "addresses.index", ctx.Wrap(d.Customer.Addresses))
	customer.Put("/addresses/{id}", "addresses.update", ctx.Wrap(d.Customer.UpdateAddress))
	customer.Delete("/addresses/{id}", "addresses.destroy", ctx.Wrap(d.Customer.DeleteAddress))

	// Driver self-service.
	driver := authed.Group("/driver", rbac.HasRole(string(models.RoleDeliveryBoy)))
	driver.Get("/profile", "driver.profile", ctx.Wrap(d.Driver.Profile))
	driver.Put("/profile", "driver.profile.update", ctx.Wrap(d.Driver.UpdateProfile))
	driver.Patch("/availability", "driver.availability", ctx.Wrap(d.Driver.SetAvailability))
	driver.Patch("/location", "driver.location", ctx.Wrap(d.Driver.UpdateLocation))
	driver.Get("/earnings", "driver.earnings", ctx.Wrap(d.Driver.Earnings))

	// Back office.
	admin := authed.Group("/admin", rbac.HasRole(string(models.RoleAdmin)))
	admin.Get("/leaderboard", "admin.leaderboard", ctx.Wrap(d.Driver.Leaderboard))
	admin.Get("/users", "admin.users", ctx.Wrap(d.Admin.Users))
	admin.Post("/drivers", "admin.drivers.store", ctx.Wrap(d.Admin.StoreDriver))
	admin.Patch("/drivers/{id}", "admin.drivers.update", ctx.Wrap(d.Admin.UpdateDriver))
	admin.Delete("/users/{id}", "admin.users.deactivate", ctx.Wrap(d.Admin.DeactivateUser))
	admin.Get("/drivers/{id}/transactions", "admin.drivers.transactions", ctx.Wrap(d.Admin.DriverTransactions))
	admin.Get("/dashboard", "admin.dashboard", ctx.Wrap(d.Admin.Dashboard))

	if d.GraphQL != nil {
		r.Post("/graphql", "graphql", func(w http.ResponseWriter, req *http.Request) {
			d.GraphQL.ServeHTTP(w, req)
		}, middleware.OptionalAuth(d.Resolve))
	}

	if d.OrderHub != nil {
		r.Get("/ws/orders", "ws.orders", func(w http.ResponseWriter, req *http.Request) {
			ws.Upgrade(w, req, d.OrderHub)
		}, middleware.Auth(d.Resolve))
	}
}
