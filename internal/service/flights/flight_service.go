package flights

import (
	"context"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	FareClasses(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

// FareClassLister is satisfied by inventory.Ledger.
type FareClassLister interface {
	FareClasses(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error)
}

type FlightService struct {
	repo      repository.FlightRepository
	inventory FareClassLister
	cache     FlightCache
	log       logrus.FieldLogger
}

// NewFlightService accepts a nil cache; List then always reads the repository.
func NewFlightService(repo repository.FlightRepository, inventory FareClassLister, cache FlightCache, log logrus.FieldLogger) *FlightService {
	return &FlightService{repo: repo, inventory: inventory, cache: cache, log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.WithError(err).Warn("flights cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("flights cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// FareClasses lists the fare classes of an existing flight with their
// remaining seats. The counts are a snapshot and may be stale immediately.
func (s *FlightService) FareClasses(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error) {
	if _, err := s.repo.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	return s.inventory.FareClasses(ctx, flightID)
}

var _ FlightUseCase = (*FlightService)(nil)
