package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rookgm/fmmall/config"
	"github.com/rookgm/fmmall/internal/auth"
	"github.com/rookgm/fmmall/internal/events"
	handler "github.com/rookgm/fmmall/internal/handler/http"
	"github.com/rookgm/fmmall/internal/logger"
	"github.com/rookgm/fmmall/internal/metrics"
	"github.com/rookgm/fmmall/internal/middleware"
	"github.com/rookgm/fmmall/internal/observability"
	"github.com/rookgm/fmmall/internal/repository"
	"github.com/rookgm/fmmall/internal/repository/postgres"
	"github.com/rookgm/fmmall/internal/service"
	"github.com/rookgm/fmmall/internal/worker"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context canceled by signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// tracing
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OtelEndpoint)
	if err != nil {
		logger.Log.Fatal("Error initializing tracing", zap.Error(err))
	}

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(cfg.TokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey, cfg.TokenTTL)

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// dependency injection
	// repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// user
	userService := service.NewUserService(userRepo)
	userHandler := handler.NewUserHandler(userService, token)

	if cfg.AdminLogin != "" && cfg.AdminPassword != "" {
		if err := userService.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword); err != nil {
			logger.Log.Fatal("Error creating admin user", zap.Error(err))
		}
	}

	// auth
	authService := service.NewAuthService(userRepo, token)
	authHandler := handler.NewAuthHandler(authService)

	// product
	productService := service.NewProductService(productRepo)
	productHandler := handler.NewProductHandler(productService)

	// address
	addressService := service.NewAddressService(db, addressRepo)
	addressHandler := handler.NewAddressHandler(addressService)

	// payment method
	paymentMethodService := service.NewPaymentMethodService(db, paymentMethodRepo)
	paymentMethodHandler := handler.NewPaymentMethodHandler(paymentMethodService)

	// order
	orderService := service.NewOrderService(service.OrderDeps{
		Tx:             db,
		Orders:         orderRepo,
		Inventory:      productRepo,
		Users:          userRepo,
		Addresses:      addressRepo,
		PaymentMethods: paymentMethodRepo,
		Events:         outboxRepo,
		Metrics:        m,
	})
	orderHandler := handler.NewOrderHandler(orderService)

	// refund
	refundService := service.NewRefundService(service.RefundDeps{
		Tx:      db,
		Orders:  orderRepo,
		Refunds: refundRepo,
		Events:  outboxRepo,
		Metrics: m,
	})
	refundHandler := handler.NewRefundHandler(refundService)

	// outbox relay
	relayDone := make(chan struct{})
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher := events.NewPublisher(brokers, cfg.OutboxTopic)
		defer publisher.Close()

		relay := worker.NewOutboxRelay(outboxRepo, publisher, m, cfg.OutboxInterval)
		go func() {
			defer close(relayDone)
			relay.Run(ctx)
		}()
	} else {
		logger.Log.Info("Kafka brokers are not set, outbox relay is disabled")
		close(relayDone)
	}

	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Logging(logger.Log))
	router.Use(middleware.Metrics(m))
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.Get("/health", handler.Health(db))
	router.Method(http.MethodGet, "/metrics", metrics.Handler(reg))

	router.Post("/api/user/register", userHandler.RegisterUser())
	router.Post("/api/user/login", authHandler.LoginUser())

	router.Get("/Product/findOne/{productId}", productHandler.GetProduct())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(handler.AuthMiddleware(token))

		group.Post("/Address/insert", addressHandler.CreateAddress())
		group.Get("/Address/findAll", addressHandler.ListUserAddresses())

		group.Post("/PaymentMethod/insert", paymentMethodHandler.RegisterPaymentMethod())
		group.Get("/PaymentMethod/findAll", paymentMethodHandler.ListUserPaymentMethods())

		group.Post("/Order/insert", orderHandler.CreateOrder())
		group.Get("/Order/findAll", orderHandler.ListUserOrders())
		group.Get("/Order/findOne/{orderId}", orderHandler.GetUserOrder())
		group.Get("/Order/findByProduct/{productId}", orderHandler.ListOrdersByProduct())
		group.Get("/Order/findByOrderItem/{orderItemId}", orderHandler.GetOrderByOrderItem())
		group.Put("/Order/cancel/{orderId}", orderHandler.CancelUserOrder())

		group.Post("/Refund/insert", refundHandler.CreateRefund())
		group.Get("/Refund/findAll", refundHandler.ListUserRefunds())
		group.Get("/Refund/findOne/{refundId}", refundHandler.GetRefund())
		group.Get("/Refund/findByProduct/{productId}", refundHandler.ListRefundsByProduct())

		// routes that require admin role
		group.Group(func(admin chi.Router) {
			admin.Use(handler.AdminMiddleware)

			admin.Post("/Product/admin/insert", productHandler.CreateProduct())
			admin.Put("/Order/admin/schedule/{orderItemId}", orderHandler.ScheduleOrderItem())
			admin.Put("/Refund/admin/approve/{refundId}", refundHandler.ApproveRefund())
			admin.Put("/Refund/admin/reject/{refundId}", refundHandler.RejectRefund())
			admin.Put("/Refund/admin/complete/{refundId}", refundHandler.CompleteRefund())
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Error starting server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Error shutting down server", zap.Error(err))
	}

	<-relayDone

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Log.Error("Error shutting down tracing", zap.Error(err))
	}
}
