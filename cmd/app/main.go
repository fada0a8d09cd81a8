package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airticketing/config"
	"github.com/Domenick1991/airticketing/internal/bootstrap"
	"github.com/Domenick1991/airticketing/internal/cache"
	"github.com/Domenick1991/airticketing/internal/inventory"
	"github.com/Domenick1991/airticketing/internal/kafka"
	"github.com/Domenick1991/airticketing/internal/logger"
	"github.com/Domenick1991/airticketing/internal/seed"
	"github.com/Domenick1991/airticketing/internal/service/booking"
	"github.com/Domenick1991/airticketing/internal/service/flights"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer storage.Close()

	healthChecks := []bootstrap.HealthCheck{storage.Health}

	var (
		flightCache      flights.FlightCache
		idempotencyStore *cache.RedisCache
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheDuration(), cfg.Booking.IdempotencyTTL(),
			cache.WithPendingTTL(cfg.Booking.IdempotencyPendingTTL()))
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, continuing without cache")
		}
		flightCache, idempotencyStore = redisCache, redisCache
		healthChecks = append(healthChecks, redisCache.Ping)
	}

	if cfg.Database.SeedFile != "" {
		fixtures, err := seed.LoadFile(cfg.Database.SeedFile)
		if err != nil {
			log.WithError(err).Fatal("load seed file")
		}
		if _, err := seed.NewLoader(storage.Flights, storage.Inventory, storage.Tx, log).Apply(ctx, fixtures); err != nil {
			log.WithError(err).Fatal("apply seed file")
		}
		if idempotencyStore != nil {
			if err := idempotencyStore.InvalidateFlights(ctx); err != nil {
				log.WithError(err).Warn("failed to invalidate flights cache")
			}
		}
	}

	bookingOpts := []booking.BookingServiceOption{
		booking.WithTimeout(cfg.Booking.Timeout()),
		booking.WithSeatLayout(booking.SeatLayout{
			PerRow:  cfg.Booking.SeatsPerRow,
			Letters: cfg.Booking.SeatLetters[:cfg.Booking.SeatsPerRow],
		}),
		booking.WithConfirmationCodeLength(cfg.Booking.ConfirmationCodeLength),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable, booking events may be lost")
		}
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	ledger := inventory.NewLedger(storage.Inventory, log)
	flightService := flights.NewFlightService(storage.Flights, ledger, flightCache, log)
	bookingService := booking.NewBookingService(storage.Tx, ledger, storage.Tickets, storage.Passengers, log, bookingOpts...)

	deps := bootstrap.Deps{
		Flights:  flightService,
		Bookings: bookingService,
		Health:   healthChecks,
		Log:      log,
	}
	if idempotencyStore != nil {
		deps.Idempotency = idempotencyStore
	}

	if err := bootstrap.Run(ctx, cfg.HTTP, deps); err != nil {
		log.WithError(err).Fatal("server error")
	}
	log.Info("server stopped")
}
