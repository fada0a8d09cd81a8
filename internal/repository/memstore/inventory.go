package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/airticketing/internal/domain"
)

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) Reserve(ctx context.Context, flightID, fareClassID int64, count int) (int64, error) {
	if err := checkCtx(ctx, "reserve seats"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	inv, ok := r.s.activeInventory(flightID, fareClassID)
	if !ok {
		r.s.mu.Unlock()
		return 0, fmt.Errorf("fare class %d on flight %d: %w", fareClassID, flightID, domain.ErrNotFound)
	}
	if inv.Remaining < count {
		r.s.mu.Unlock()
		return 0, fmt.Errorf("fare class %d on flight %d, requested %d: %w", fareClassID, flightID, count, domain.ErrInsufficientInventory)
	}
	inv.Remaining -= count
	fare := inv.FareCents
	r.s.mu.Unlock()

	onRollback(ctx, func() { r.s.release(flightID, fareClassID, count) })
	return fare, nil
}

func (r inventoryRepo) Release(ctx context.Context, flightID, fareClassID int64, count int) error {
	if err := checkCtx(ctx, "release seats"); err != nil {
		return err
	}
	if !r.s.release(flightID, fareClassID, count) {
		return fmt.Errorf("fare class %d on flight %d: %w", fareClassID, flightID, domain.ErrNotFound)
	}
	return nil
}

func (r inventoryRepo) GetRemaining(ctx context.Context, flightID, fareClassID int64) (int, error) {
	if err := checkCtx(ctx, "get remaining"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.activeInventory(flightID, fareClassID)
	if !ok {
		return 0, fmt.Errorf("fare class %d on flight %d: %w", fareClassID, flightID, domain.ErrNotFound)
	}
	return inv.Remaining, nil
}

func (r inventoryRepo) ListByFlight(ctx context.Context, flightID int64) ([]domain.FareClassInventory, error) {
	if err := checkCtx(ctx, "list fare classes"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]domain.FareClassInventory, 0)
	for k, inv := range r.s.inventory {
		if k.flightID == flightID && inv.DeletedAt == nil {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FareCents != result[j].FareCents {
			return result[i].FareCents > result[j].FareCents
		}
		return result[i].FareClassID < result[j].FareClassID
	})
	return result, nil
}

func (r inventoryRepo) Upsert(ctx context.Context, inv *domain.FareClassInventory) error {
	if err := checkCtx(ctx, "upsert inventory"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.flights[inv.FlightID]; !ok {
		return fmt.Errorf("flight %d: %w", inv.FlightID, domain.ErrNotFound)
	}
	id, ok := r.s.fareClasses[inv.Name]
	if !ok {
		r.s.nextFareClassID++
		id = r.s.nextFareClassID
		r.s.fareClasses[inv.Name] = id
	}
	inv.FareClassID = id

	key := invKey{inv.FlightID, id}
	existing, ok := r.s.inventory[key]
	if !ok {
		inv.Remaining = inv.Capacity
		cp := *inv
		r.s.inventory[key] = &cp
		onRollback(ctx, func() {
			r.s.mu.Lock()
			delete(r.s.inventory, key)
			r.s.mu.Unlock()
		})
		return nil
	}
	remaining := inv.Capacity - existing.Sold()
	if remaining < 0 {
		return fmt.Errorf("capacity %d below sold seats %d: %w", inv.Capacity, existing.Sold(), domain.ErrInsufficientInventory)
	}
	prevCapacity, prevFare := existing.Capacity, existing.FareCents
	onRollback(ctx, func() {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		existing.Remaining -= existing.Capacity - prevCapacity
		existing.Capacity, existing.FareCents = prevCapacity, prevFare
		existing.Remaining = max(0, min(existing.Remaining, existing.Capacity))
	})
	existing.Remaining = remaining
	existing.Capacity = inv.Capacity
	existing.FareCents = inv.FareCents
	inv.Remaining = remaining
	return nil
}

// release adds count back, never above capacity. Caller must not hold mu.
func (s *Store) release(flightID, fareClassID int64, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.activeInventory(flightID, fareClassID)
	if !ok {
		return false
	}
	inv.Remaining += count
	if inv.Remaining > inv.Capacity {
		inv.Remaining = inv.Capacity
	}
	return true
}

func (s *Store) activeInventory(flightID, fareClassID int64) (*domain.FareClassInventory, bool) {
	inv, ok := s.inventory[invKey{flightID, fareClassID}]
	if !ok || inv.DeletedAt != nil {
		return nil, false
	}
	return inv, true
}
