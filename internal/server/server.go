// Package server boots the full application: configuration, storage,
// databases, workers, the scheduler and the HTTP/gRPC listeners.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/controllers"
	appgraphql "dukaan/app/graphql"
	"dukaan/app/jobs"
	"dukaan/app/models"
	"dukaan/app/repositories"
	"dukaan/app/routes"
	"dukaan/app/services"
	"dukaan/config"
	"dukaan/database/seeders"
	"dukaan/pkg/cache"
	"dukaan/pkg/database"
	"dukaan/pkg/event"
	pkggraphql "dukaan/pkg/graphql"
	"dukaan/pkg/grpcserver"
	"dukaan/pkg/logger"
	"dukaan/pkg/middleware"
	"dukaan/pkg/notification"
	"dukaan/pkg/queue"
	"dukaan/pkg/router"
	"dukaan/pkg/schedule"
	"dukaan/pkg/storage"
	"dukaan/pkg/ws"
)

const shutdownGrace = 10 * time.Second

// Start boots everything and blocks until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer database.Disconnect(context.Background()) //nolint:errcheck

	if err := database.EnsureIndexes(ctx); err != nil {
		return err
	}

	if config.MongoLogs() {
		if h, err := logger.NewMongoHandler(database.Collection("logs")); err == nil {
			logger.SetHandler(h)
			defer h.Close()
		} else {
			logger.Warn("server: mongo log handler unavailable", "error", err)
		}
	}

	if err := cache.Connect(); err != nil {
		logger.Warn("server: cache unavailable, running without it", "error", err)
	}
	storage.Connect()
	notification.SetSMSGateway(config.Get("SMS_GATEWAY_URL", ""))

	// Background workers: failed jobs land in Mongo, the live queue rides
	// Redis when available and falls back to in-process memory.
	queue.UseCollection(database.Collection("failed_jobs"))
	if cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	jobs.Register()
	queue.StartWorkers(ctx, 5)

	// Wiring: repositories → services → controllers.
	users := repositories.NewUserRepository(database.DB)
	profiles := repositories.NewProfileRepository(database.DB)
	addresses := repositories.NewAddressRepository(database.DB)
	products := repositories.NewProductRepository(database.DB)
	orders := repositories.NewOrderRepository(database.DB)
	transactions := repositories.NewTransactionRepository(database.DB)

	authService := services.NewAuthService(users, profiles, jobs.QueueNotifier{})
	orderService := services.NewOrderService(orders, products, addresses, users, profiles, transactions)
	catalogService := services.NewCatalogService(products)
	customerService := services.NewCustomerService(addresses)
	driverService := services.NewDriverService(users, profiles, transactions)
	adminService := services.NewAdminService(users, orders, transactions, authService)

	// Stale reset tokens are purged hourly.
	schedule.Hourly().Name("expired-reset-tokens").WithoutOverlapping().Run(func() {
		cleaned, err := users.ClearExpiredResetTokens(context.Background(), time.Now())
		if err != nil {
			logger.Error("schedule: clear reset tokens", "error", err)
			return
		}
		if cleaned > 0 {
			logger.Info("schedule: cleared expired reset tokens", "count", cleaned)
		}
	})
	schedule.Start(ctx)

	// Order lifecycle events stream to websocket clients; deliveries also
	// queue a receipt mail.
	hub := ws.NewHub()
	go hub.Run()
	registerOrderEvents(hub, users)

	gqlHandler, err := buildGraphQL(authService, orderService, catalogService)
	if err != nil {
		return err
	}

	r := router.New()
	routes.RegisterAPI(r, routes.Deps{
		Auth:     controllers.NewAuthController(authService),
		Orders:   controllers.NewOrderController(orderService),
		Catalog:  controllers.NewCatalogController(catalogService),
		Customer: controllers.NewCustomerController(customerService),
		Driver:   controllers.NewDriverController(driverService),
		Admin:    controllers.NewAdminController(adminService),
		Resolve:  resolvePrincipal(users),
		GraphQL:  gqlHandler,
		OrderHub: hub,
	})

	if port := config.GRPCPort(); port != "" {
		srv, _, err := grpcserver.Start(port)
		if err != nil {
			return err
		}
		defer grpcserver.Stop(srv)
	}

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

// Seed runs all registered database seeders against the configured database.
func Seed(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return err
	}
	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer database.Disconnect(context.Background()) //nolint:errcheck

	if err := database.EnsureIndexes(ctx); err != nil {
		return err
	}
	return seeders.RunAll(ctx, database.DB)
}

// resolvePrincipal re-loads the token's user on every request. Deactivated
// and deleted accounts fail authentication before their token expires.
func resolvePrincipal(users *repositories.UserRepository) middleware.UserResolver {
	return func(ctx context.Context, userID string) (middleware.Principal, error) {
		id, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return middleware.Principal{}, errors.New("invalid subject")
		}
		u, err := users.FindByID(ctx, id)
		if err != nil {
			return middleware.Principal{}, err
		}
		if !u.IsActive {
			return middleware.Principal{}, errors.New("account deactivated")
		}
		return middleware.Principal{UserID: userID, Role: string(u.Role)}, nil
	}
}

func buildGraphQL(auth *services.AuthService, orders *services.OrderService, catalog *services.CatalogService) (http.Handler, error) {
	query, mutation := appgraphql.NewRoot(auth, orders, catalog)
	schema, err := pkggraphql.NewSchema(query, mutation)
	if err != nil {
		return nil, err
	}
	return pkggraphql.Handler(schema), nil
}

// registerOrderEvents fans order lifecycle events out to the websocket hub
// and dispatches the delivery receipt mail.
func registerOrderEvents(hub *ws.Hub, users *repositories.UserRepository) {
	broadcast := func(name string) event.Handler {
		return func(payload interface{}) {
			order, ok := payload.(*models.Order)
			if !ok {
				return
			}
			msg, err := json.Marshal(map[string]interface{}{
				"event": name,
				"order": order,
			})
			if err != nil {
				return
			}
			hub.Broadcast <- msg
		}
	}

	event.Listen(services.EventOrderCreated, broadcast(services.EventOrderCreated))
	event.Listen(services.EventOrderStatusChanged, broadcast(services.EventOrderStatusChanged))
	event.Listen(services.EventOrderDelivered, broadcast(services.EventOrderDelivered))

	event.Listen(services.EventOrderDelivered, func(payload interface{}) {
		order, ok := payload.(*models.Order)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		customer, err := users.FindByID(ctx, order.CustomerID)
		if err != nil || customer.Email == "" {
			return
		}
		if err := queue.Dispatch(&jobs.DeliveryReceiptJob{
			Name:        customer.Name,
			Email:       customer.Email,
			OrderNumber: order.OrderNumber,
			Total:       order.TotalAmount,
		}); err != nil {
			logger.Error("server: dispatch delivery receipt", "error", err)
		}
	})
}
