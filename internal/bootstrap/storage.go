package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airticketing/config"
	"github.com/Domenick1991/airticketing/internal/repository"
	"github.com/Domenick1991/airticketing/internal/repository/memstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Storage struct {
	Flights    repository.FlightRepository
	Inventory  repository.InventoryRepository
	Tickets    repository.TicketRepository
	Passengers repository.PassengerDirectory
	Tx         repository.Transactor
	Health     HealthCheck
	Close      func()
}

// OpenStorage connects the configured driver. With postgres and
// database.migrate set the embedded schema is applied first.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		store := memstore.New()
		return &Storage{
			Flights:    store.Flights(),
			Inventory:  store.Inventory(),
			Tickets:    store.Tickets(),
			Passengers: store.Passengers(),
			Tx:         store.Transactor(),
			Health:     func(context.Context) error { return nil },
			Close:      func() {},
		}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.Migrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info("database schema applied")
		}
		return &Storage{
			Flights:    repository.NewFlightRepository(pool),
			Inventory:  repository.NewInventoryRepository(pool),
			Tickets:    repository.NewTicketRepository(pool),
			Passengers: repository.NewPassengerDirectory(pool),
			Tx:         repository.NewTxManager(pool),
			Health:     pool.Ping,
			Close:      pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
