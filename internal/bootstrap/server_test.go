package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Domenick1991/airticketing/config"
	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/inventory"
	"github.com/Domenick1991/airticketing/internal/logger"
	"github.com/Domenick1991/airticketing/internal/repository/memstore"
	"github.com/Domenick1991/airticketing/internal/service/booking"
	"github.com/Domenick1991/airticketing/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, swaggerDir string, checks ...HealthCheck) (*gin.Engine, *domain.Flight, *domain.FareClassInventory) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := logger.Discard()

	store := memstore.New()
	flight := &domain.Flight{FromAirport: "SVO", ToAirport: "KGD", DepartureTime: time.Now().Add(48 * time.Hour)}
	require.NoError(t, store.Flights().Create(ctx, flight))
	inv := &domain.FareClassInventory{FlightID: flight.ID, Name: "Economy", Capacity: 2, FareCents: 7000}
	require.NoError(t, store.Inventory().Upsert(ctx, inv))

	ledger := inventory.NewLedger(store.Inventory(), log)
	router := NewRouter(config.HTTPConfig{SwaggerDir: swaggerDir}, Deps{
		Flights:  flights.NewFlightService(store.Flights(), ledger, nil, log),
		Bookings: booking.NewBookingService(store.Transactor(), ledger, store.Tickets(), store.Passengers(), log),
		Health:   checks,
		Log:      log,
	})
	return router, flight, inv
}

func do(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_BookingFlow(t *testing.T) {
	router, flight, inv := newTestRouter(t, "")

	w := do(router, http.MethodGet, "/api/v1/flights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body, err := json.Marshal(map[string]any{
		"flight_id":     flight.ID,
		"fare_class_id": inv.FareClassID,
		"passengers": []map[string]string{
			{"name": "Ann", "citizen_id": "C1", "email": "ann@example.com"},
			{"name": "Bob", "citizen_id": "C2"},
		},
	})
	require.NoError(t, err)

	w = do(router, http.MethodPost, "/api/v1/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ConfirmationCode string          `json:"confirmation_code"`
		Tickets          []domain.Ticket `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.Tickets, 2)

	w = do(router, http.MethodGet, "/api/v1/bookings/"+created.ConfirmationCode, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, fmt.Sprintf("/api/v1/flights/%d/fare-classes", flight.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var classes []domain.FareClassInventory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &classes))
	assert.Equal(t, 0, classes[0].Remaining)

	w = do(router, http.MethodPost, "/api/v1/bookings", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_inventory")
}

func TestRouter_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t, "")

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/flights/42", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/bookings/UNKNOWN1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/flights/42/fare-classes", nil).Code)
}

func TestRouter_Health(t *testing.T) {
	router, _, _ := newTestRouter(t, "")
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", nil).Code)

	failing, _, _ := newTestRouter(t, "", func(context.Context) error { return errors.New("postgres down") })
	w := do(failing, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "postgres down")
}

func TestRouter_Metrics(t *testing.T) {
	router, _, _ := newTestRouter(t, "")

	w := do(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_Swagger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "airbooking.swagger.json"), []byte(`{"swagger":"2.0"}`), 0o600))
	router, _, _ := newTestRouter(t, dir)

	w := do(router, http.MethodGet, "/swagger/airbooking.swagger.json", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/docs/index.html", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, config.HTTPConfig{Address: "127.0.0.1:0"}, Deps{Log: logger.Discard()})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
