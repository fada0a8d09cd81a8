package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/repository/pgtest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPG(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := pgtest.Pool(t)
	require.NoError(t, Migrate(context.Background(), pool))
	return pool
}

func seedFlight(t *testing.T, pool *pgxpool.Pool, capacity int) (*domain.Flight, *domain.FareClassInventory) {
	t.Helper()
	ctx := context.Background()
	flight := &domain.Flight{FromAirport: "SVO", ToAirport: "LED", DepartureTime: time.Now().Add(24 * time.Hour), ArrivalTime: time.Now().Add(26 * time.Hour)}
	require.NoError(t, NewFlightRepository(pool).Create(ctx, flight))

	inv := &domain.FareClassInventory{FlightID: flight.ID, Name: "Economy", Capacity: capacity, FareCents: 12000}
	require.NoError(t, NewInventoryRepository(pool).Upsert(ctx, inv))
	return flight, inv
}

func TestPGInventory_NoOversellingUnderConcurrency(t *testing.T) {
	pool := setupPG(t)
	flight, inv := seedFlight(t, pool, 5)
	repo := NewInventoryRepository(pool)
	tx := NewTxManager(pool)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
				_, err := repo.Reserve(ctx, flight.ID, inv.FareClassID, 1)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, domain.ErrInsufficientInventory) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, rejected)
	remaining, err := repo.GetRemaining(context.Background(), flight.ID, inv.FareClassID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestPGInventory_ReleaseIsBoundedByCapacity(t *testing.T) {
	pool := setupPG(t)
	flight, inv := seedFlight(t, pool, 3)
	repo := NewInventoryRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Release(ctx, flight.ID, inv.FareClassID, 10))
	remaining, err := repo.GetRemaining(ctx, flight.ID, inv.FareClassID)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	_, err = repo.Reserve(ctx, flight.ID, 987654321, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPGTickets_RollbackRestoresInventoryAndSeats(t *testing.T) {
	pool := setupPG(t)
	flight, inv := seedFlight(t, pool, 4)
	ctx := context.Background()
	inventory := NewInventoryRepository(pool)
	tickets := NewTicketRepository(pool)
	passengers := NewPassengerDirectory(pool)
	tx := NewTxManager(pool)

	p, err := passengers.Create(ctx, domain.PassengerDescriptor{FullName: "Ann", CitizenID: uuid.NewString()})
	require.NoError(t, err)
	again, err := passengers.Create(ctx, domain.PassengerDescriptor{FullName: "Other", CitizenID: p.CitizenID})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "Ann", again.FullName)

	ticket := func(code string) domain.Ticket {
		return domain.Ticket{ID: uuid.NewString(), FlightID: flight.ID, FareClassID: inv.FareClassID, PassengerID: p.ID,
			SeatNumber: "1A", FareCents: 12000, Status: domain.TicketStatusUnpaid, ConfirmationCode: code, CreatedAt: time.Now()}
	}

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := inventory.Reserve(ctx, flight.ID, inv.FareClassID, 1); err != nil {
			return err
		}
		return tickets.SaveBatch(ctx, []domain.Ticket{ticket(uuid.NewString()[:8])})
	})
	require.NoError(t, err)

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := inventory.Reserve(ctx, flight.ID, inv.FareClassID, 1); err != nil {
			return err
		}
		return tickets.SaveBatch(ctx, []domain.Ticket{ticket(uuid.NewString()[:8])})
	})
	assert.ErrorIs(t, err, domain.ErrSeatConflict)

	remaining, err := inventory.GetRemaining(ctx, flight.ID, inv.FareClassID)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	active, err := tickets.FindActiveByFlight(ctx, flight.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	seq, err := tickets.AdvanceSeatSequence(ctx, flight.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestPGTickets_SeatUniquenessAcrossGroups(t *testing.T) {
	pool := setupPG(t)
	flight, inv := seedFlight(t, pool, 4)
	ctx := context.Background()
	tickets := NewTicketRepository(pool)

	p, err := NewPassengerDirectory(pool).Create(ctx, domain.PassengerDescriptor{FullName: "Ann", CitizenID: uuid.NewString()})
	require.NoError(t, err)
	ticket := func(seat string) domain.Ticket {
		return domain.Ticket{ID: uuid.NewString(), FlightID: flight.ID, FareClassID: inv.FareClassID, PassengerID: p.ID,
			SeatNumber: seat, FareCents: 12000, Status: domain.TicketStatusUnpaid, ConfirmationCode: uuid.NewString()[:8], CreatedAt: time.Now()}
	}

	first := ticket("4C")
	require.NoError(t, tickets.SaveBatch(ctx, []domain.Ticket{first}))
	assert.ErrorIs(t, tickets.SaveBatch(ctx, []domain.Ticket{ticket("4C")}), domain.ErrSeatConflict)

	found, err := tickets.FindActiveByFlightAndSeat(ctx, flight.ID, "4C")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	group, err := tickets.FindByConfirmationCode(ctx, first.ConfirmationCode)
	require.NoError(t, err)
	assert.Len(t, group, 1)
}

func TestPGInventory_ShrinkBelowSoldIsRejected(t *testing.T) {
	pool := setupPG(t)
	flight, inv := seedFlight(t, pool, 5)
	repo := NewInventoryRepository(pool)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, flight.ID, inv.FareClassID, 3)
	require.NoError(t, err)

	grow := &domain.FareClassInventory{FlightID: flight.ID, Name: inv.Name, Capacity: 8, FareCents: 100}
	require.NoError(t, repo.Upsert(ctx, grow))
	assert.Equal(t, 5, grow.Remaining)

	shrink := &domain.FareClassInventory{FlightID: flight.ID, Name: inv.Name, Capacity: 2, FareCents: 100}
	assert.ErrorIs(t, repo.Upsert(ctx, shrink), domain.ErrInsufficientInventory)
}

func TestPGTickets_SeatSequenceRollsBackWithTransaction(t *testing.T) {
	pool := setupPG(t)
	flight, _ := seedFlight(t, pool, 4)
	ctx := context.Background()
	tickets := NewTicketRepository(pool)
	boom := errors.New("boom")

	err := NewTxManager(pool).WithinTransaction(ctx, func(ctx context.Context) error {
		seq, err := tickets.AdvanceSeatSequence(ctx, flight.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), seq)
		return boom
	})
	require.ErrorIs(t, err, boom)

	seq, err := tickets.AdvanceSeatSequence(ctx, flight.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	_, err = tickets.AdvanceSeatSequence(ctx, flight.ID+1000000, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPGTickets_SeatSequenceHoldsFlightUntilCommit(t *testing.T) {
	pool := setupPG(t)
	flight, _ := seedFlight(t, pool, 4)
	ctx := context.Background()
	tickets := NewTicketRepository(pool)

	locked := make(chan struct{})
	commit := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- NewTxManager(pool).WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := tickets.AdvanceSeatSequence(ctx, flight.ID, 1); err != nil {
				return err
			}
			close(locked)
			<-commit
			return nil
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err := tickets.AdvanceSeatSequence(waitCtx, flight.ID, 1)
	assert.Error(t, err)

	close(commit)
	require.NoError(t, <-done)

	seq, err := tickets.AdvanceSeatSequence(ctx, flight.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestPGPassengers_ConcurrentCreateSameCitizen(t *testing.T) {
	pool := setupPG(t)
	passengers := NewPassengerDirectory(pool)
	citizen := uuid.NewString()

	const callers = 10
	ids := make([]int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := passengers.Create(context.Background(), domain.PassengerDescriptor{FullName: "Same", CitizenID: citizen})
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
