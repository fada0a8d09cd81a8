// Package inventory is the single authority on whether more seats may be sold
// in a fare class. The decision is delegated to the store's conditional
// update so it holds across processes, not just goroutines.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/metrics"
	"github.com/Domenick1991/airticketing/internal/repository"
	"github.com/sirupsen/logrus"
)

type Ledger struct {
	repo repository.InventoryRepository
	log  logrus.FieldLogger
}

func NewLedger(repo repository.InventoryRepository, log logrus.FieldLogger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// Reserve takes count seats or none. It returns the unit fare in cents.
// When ctx carries a transaction the decrement joins it and becomes durable
// only with that transaction.
func (l *Ledger) Reserve(ctx context.Context, flightID, fareClassID int64, count int) (int64, error) {
	if count <= 0 {
		return 0, fmt.Errorf("reserve %d seats: %w", count, domain.ErrInvalidRequest)
	}

	fare, err := l.repo.Reserve(ctx, flightID, fareClassID, count)
	if err != nil {
		metrics.Reservations.WithLabelValues(reservationResult(err)).Inc()
		l.log.WithFields(logrus.Fields{
			"flight_id":     flightID,
			"fare_class_id": fareClassID,
			"count":         count,
		}).WithError(err).Debug("reservation rejected")
		return 0, err
	}
	metrics.Reservations.WithLabelValues(metrics.ResultOK).Inc()
	return fare, nil
}

// Release returns count seats; remaining never exceeds capacity. Failed
// bookings do not come through here: their reservation is undone by the
// transaction rollback.
func (l *Ledger) Release(ctx context.Context, flightID, fareClassID int64, count int) error {
	if count <= 0 {
		return fmt.Errorf("release %d seats: %w", count, domain.ErrInvalidRequest)
	}
	if err := l.repo.Release(ctx, flightID, fareClassID, count); err != nil {
		return err
	}
	metrics.Releases.WithLabelValues(metrics.ReleaseExplicit).Add(float64(count))
	return nil
}

// GetRemaining is for display. Booking decisions go through Reserve.
func (l *Ledger) GetRemaining(ctx context.Context, flightID, fareClassID int64) (int, error) {
	return l.repo.GetRemaining(ctx, flightID, fareClassID)
}

func (l *Ledger) FareClasses(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error) {
	return l.repo.ListByFlight(ctx, flightID)
}

func reservationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientInventory):
		return metrics.ResultInsufficientInventory
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
