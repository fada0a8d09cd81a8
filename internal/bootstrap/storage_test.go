package bootstrap

import (
	"context"
	"testing"

	"github.com/Domenick1991/airticketing/config"
	"github.com/Domenick1991/airticketing/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStorage_Memory(t *testing.T) {
	ctx := context.Background()
	storage, err := OpenStorage(ctx, config.DatabaseConfig{Driver: config.DriverMemory}, logger.Discard())
	require.NoError(t, err)
	defer storage.Close()

	assert.NoError(t, storage.Health(ctx))
	flights, err := storage.Flights.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, logger.Discard())
	assert.Error(t, err)
}
