// Package main is the entry point for the booking checkout service.
//
//	@title						Booking Checkout Service API
//	@version					1.0.0
//	@description				A travel booking checkout backend that manages seat inventory, shopping carts with timed holds, and all-or-nothing checkout.
//
//	@contact.name				API Support
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	// Import generated docs for swagger
	_ "github.com/travelbook/booking-checkout-service/docs"

	"github.com/travelbook/booking-checkout-service/internal/adapter/catalog/static"
	bookinghttp "github.com/travelbook/booking-checkout-service/internal/adapter/http"
	"github.com/travelbook/booking-checkout-service/internal/adapter/http/middleware"
	"github.com/travelbook/booking-checkout-service/internal/adapter/notify"
	"github.com/travelbook/booking-checkout-service/internal/adapter/payment"
	"github.com/travelbook/booking-checkout-service/internal/adapter/storage/memory"
	"github.com/travelbook/booking-checkout-service/internal/adapter/storage/mysql"
	redisstore "github.com/travelbook/booking-checkout-service/internal/adapter/storage/redis"
	"github.com/travelbook/booking-checkout-service/internal/config"
	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/logger"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/timeutil"
	"github.com/travelbook/booking-checkout-service/internal/usecase"
)

const (
	shutdownTimeout = 10 * time.Second
	warmupTimeout   = 30 * time.Second
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger with config
	log.Logger = logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "booking-checkout",
	}).Logger

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.Server.Port).
		Str("inventory_backend", cfg.Inventory.Backend).
		Str("orders_backend", cfg.Orders.Backend).
		Msg("Configuration loaded")

	// Build storage backends
	inventory, err := buildInventoryStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize inventory store")
	}
	orders, closeOrders, err := buildOrderStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize order store")
	}
	defer closeOrders()

	// Load the flight catalog and seed inventory for each flight
	catalog, err := static.Load(cfg.Catalog.FixturePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Catalog.FixturePath).Msg("Failed to load flight catalog")
	}

	clock := timeutil.NewRealClock()
	ledger := usecase.NewInventoryLedger(inventory, clock, &usecase.LedgerConfig{
		DefaultTTL: cfg.Hold.TTL,
	}, log.Logger)

	if err := warmUpInventory(catalog, ledger); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed inventory")
	}

	// Background sweeper releases capacity held by expired holds
	sweeper := usecase.NewSweeper(ledger, cfg.Hold.SweepInterval, log.Logger)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// Payment gateway
	payments := payment.NewGateway(cfg.Payment.Endpoint, cfg.Payment.Timeout, log.Logger)

	// Optional order-completed notifications
	var notifier domain.Notifier
	if cfg.Notify.Enabled {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.Notify.AMQPURL, cfg.Notify.Queue, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect notifier")
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	// Use cases
	carts := usecase.NewCartService(catalog, ledger, clock, log.Logger)
	checkout := usecase.NewCheckoutService(carts, ledger, payments, orders, notifier, clock, log.Logger)

	// HTTP layer
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	middleware.Setup(e, log.Logger)

	handler := bookinghttp.NewBookingHandler(carts, checkout, ledger)
	bookinghttp.RegisterRoutes(e, handler)

	// Swagger documentation endpoint
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Start server with graceful shutdown
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		log.Info().Str("address", addr).Msg("Starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	gracefulShutdown(e)
}

// buildInventoryStore selects the inventory backend from config.
func buildInventoryStore(cfg *config.Config) (domain.InventoryStore, error) {
	switch cfg.Inventory.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Inventory.RedisAddr,
			Password: cfg.Inventory.RedisPassword,
			DB:       cfg.Inventory.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return redisstore.NewInventoryStore(client), nil
	default:
		return memory.NewInventoryStore(), nil
	}
}

// buildOrderStore selects the order backend from config. The returned close
// function releases the backend's resources and is safe to call once.
func buildOrderStore(cfg *config.Config) (domain.OrderStore, func(), error) {
	switch cfg.Orders.Backend {
	case "mysql":
		db, err := mysql.Open(cfg.Orders.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		return mysql.NewOrderStore(db), func() { _ = db.Close() }, nil
	default:
		return memory.NewOrderStore(), func() {}, nil
	}
}

// warmUpInventory seeds ledger state for every flight in the catalog so
// availability queries and holds work from the first request.
func warmUpInventory(catalog *static.Catalog, ledger usecase.InventoryLedger) error {
	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	for _, flight := range catalog.Flights() {
		if err := ledger.EnsureFlight(ctx, flight); err != nil {
			return fmt.Errorf("ensure flight %s: %w", flight.ID, err)
		}
	}
	return nil
}

// gracefulShutdown handles graceful server shutdown on interrupt signals.
func gracefulShutdown(e *echo.Echo) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
