// Package seed loads flights and fare class inventory from a YAML fixture.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/repository"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type FareClass struct {
	Name      string `yaml:"name"`
	Capacity  int    `yaml:"capacity"`
	FareCents int64  `yaml:"fare_cents"`
}

type Flight struct {
	From        string      `yaml:"from"`
	To          string      `yaml:"to"`
	Departure   time.Time   `yaml:"departure"`
	Arrival     time.Time   `yaml:"arrival"`
	FareClasses []FareClass `yaml:"fare_classes"`
}

type Fixtures struct {
	Flights []Flight `yaml:"flights"`
}

func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixtures) validate() error {
	for i, f := range fx.Flights {
		if f.From == "" || f.To == "" {
			return fmt.Errorf("flight %d: from and to are required", i+1)
		}
		if !f.Arrival.After(f.Departure) {
			return fmt.Errorf("flight %d: arrival must be after departure", i+1)
		}
		if len(f.FareClasses) == 0 {
			return fmt.Errorf("flight %d: at least one fare class is required", i+1)
		}
		names := make(map[string]struct{}, len(f.FareClasses))
		for _, fc := range f.FareClasses {
			if fc.Name == "" || fc.Capacity <= 0 || fc.FareCents < 0 {
				return fmt.Errorf("flight %d: fare class %q needs a name, positive capacity and non-negative fare", i+1, fc.Name)
			}
			if _, dup := names[fc.Name]; dup {
				return fmt.Errorf("flight %d: fare class %q listed twice", i+1, fc.Name)
			}
			names[fc.Name] = struct{}{}
		}
	}
	return nil
}

type Loader struct {
	flights   repository.FlightRepository
	inventory repository.InventoryRepository
	tx        repository.Transactor
	log       logrus.FieldLogger
}

func NewLoader(flights repository.FlightRepository, inventory repository.InventoryRepository, tx repository.Transactor, log logrus.FieldLogger) *Loader {
	return &Loader{flights: flights, inventory: inventory, tx: tx, log: log}
}

// Apply creates every flight with its fare classes. Each flight is written
// in its own transaction; the IDs of created flights are returned.
func (l *Loader) Apply(ctx context.Context, fx *Fixtures) ([]int64, error) {
	ids := make([]int64, 0, len(fx.Flights))
	for _, f := range fx.Flights {
		flight := &domain.Flight{
			FromAirport:   f.From,
			ToAirport:     f.To,
			DepartureTime: f.Departure,
			ArrivalTime:   f.Arrival,
		}
		err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := l.flights.Create(ctx, flight); err != nil {
				return err
			}
			for _, fc := range f.FareClasses {
				inv := &domain.FareClassInventory{
					FlightID:  flight.ID,
					Name:      fc.Name,
					Capacity:  fc.Capacity,
					FareCents: fc.FareCents,
				}
				if err := l.inventory.Upsert(ctx, inv); err != nil {
					return fmt.Errorf("fare class %s: %w", fc.Name, err)
				}
			}
			return nil
		})
		if err != nil {
			return ids, fmt.Errorf("seed flight %s-%s: %w", f.From, f.To, err)
		}
		l.log.WithFields(logrus.Fields{
			"flight_id":    flight.ID,
			"route":        f.From + "-" + f.To,
			"fare_classes": len(f.FareClasses),
		}).Info("flight seeded")
		ids = append(ids, flight.ID)
	}
	return ids, nil
}
