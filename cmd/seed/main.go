package main

import (
	"context"
	"flag"
	"os"

	"github.com/Domenick1991/airticketing/config"
	"github.com/Domenick1991/airticketing/internal/bootstrap"
	"github.com/Domenick1991/airticketing/internal/cache"
	"github.com/Domenick1991/airticketing/internal/logger"
	"github.com/Domenick1991/airticketing/internal/seed"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	fixturesPath := flag.String("fixtures", "fixtures.yaml", "YAML file with flights and fare classes")
	flag.Parse()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	if cfg.Database.Driver == config.DriverMemory {
		log.Fatal("seeding the memory driver has no effect; set database.seed_file for the app instead")
	}

	fixtures, err := seed.LoadFile(*fixturesPath)
	if err != nil {
		log.WithError(err).Fatal("load fixtures")
	}

	ctx := context.Background()
	storage, err := bootstrap.OpenStorage(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer storage.Close()

	ids, err := seed.NewLoader(storage.Flights, storage.Inventory, storage.Tx, log).Apply(ctx, fixtures)
	if err != nil {
		log.WithError(err).Fatal("seed")
	}
	log.WithField("flights", len(ids)).Info("seed complete")

	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheDuration(), cfg.Booking.IdempotencyTTL())
		defer redisCache.Close()
		if err := redisCache.InvalidateFlights(ctx); err != nil {
			log.WithError(err).Warn("failed to invalidate flights cache")
		}
	}
}
