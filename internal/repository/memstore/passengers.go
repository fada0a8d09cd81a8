package memstore

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airticketing/internal/domain"
)

type passengerDirectory struct{ s *Store }

func (d passengerDirectory) FindByCitizenID(ctx context.Context, citizenID string) (*domain.Passenger, error) {
	if err := checkCtx(ctx, "find passenger"); err != nil {
		return nil, err
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	id, ok := d.s.byCitizen[citizenID]
	if !ok {
		return nil, fmt.Errorf("passenger %s: %w", citizenID, domain.ErrNotFound)
	}
	cp := *d.s.passengers[id]
	return &cp, nil
}

func (d passengerDirectory) Create(ctx context.Context, desc domain.PassengerDescriptor) (*domain.Passenger, error) {
	if err := checkCtx(ctx, "create passenger"); err != nil {
		return nil, err
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if id, ok := d.s.byCitizen[desc.CitizenID]; ok {
		cp := *d.s.passengers[id]
		return &cp, nil
	}
	d.s.nextPassengerID++
	p := &domain.Passenger{
		ID:        d.s.nextPassengerID,
		FullName:  desc.FullName,
		CitizenID: desc.CitizenID,
		Email:     desc.Email,
		CreatedAt: d.s.now(),
	}
	d.s.passengers[p.ID] = p
	d.s.byCitizen[p.CitizenID] = p.ID
	cp := *p
	return &cp, nil
}
