package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewFlightRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewFlightRepository(pool)
	assert.NotNil(t, repo)
}

func TestNewStores(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewInventoryRepository(pool))
	assert.NotNil(t, NewTicketRepository(pool))
	assert.NotNil(t, NewPassengerDirectory(pool))
	assert.NotNil(t, NewTxManager(pool))
}
