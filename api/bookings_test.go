package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) BookTickets(ctx context.Context, req domain.BookingRequest) ([]domain.Ticket, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, code string) ([]domain.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

const createBody = `{
	"flight_id": 1,
	"fare_class_id": 2,
	"passengers": [{"name": "Ann", "citizen_id": "C1", "email": "ann@example.com"}],
	"seat_numbers": ["3A"]
}`

func expectedRequest() domain.BookingRequest {
	return domain.BookingRequest{
		FlightID:    1,
		FareClassID: 2,
		Passengers:  []domain.PassengerDescriptor{{FullName: "Ann", CitizenID: "C1", Email: "ann@example.com"}},
		SeatNumbers: []string{"3A"},
	}
}

func newCreateContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)
	c, w := newCreateContext(createBody)

	tickets := []domain.Ticket{{
		ID:               "t1",
		FlightID:         1,
		FareClassID:      2,
		PassengerID:      10,
		SeatNumber:       "3A",
		FareCents:        5000,
		Status:           domain.TicketStatusUnpaid,
		ConfirmationCode: "ABCDEF23",
	}}
	mockService.On("BookTickets", c.Request.Context(), expectedRequest()).Return(tickets, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ABCDEF23", resp.ConfirmationCode)
	require.Len(t, resp.Tickets, 1)
	assert.Equal(t, "3A", resp.Tickets[0].SeatNumber)
	assert.Equal(t, domain.TicketStatusUnpaid, resp.Tickets[0].Status)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_BadJSON(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)
	c, w := newCreateContext(`{"flight_id": "one"`)

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid_request"`)
	mockService.AssertNotCalled(t, "BookTickets", mock.Anything, mock.Anything)
}

func TestBookingHandler_create_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid", domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
		{"sold out", domain.ErrInsufficientInventory, http.StatusConflict, "insufficient_inventory"},
		{"seat taken", domain.ErrSeatConflict, http.StatusConflict, "seat_conflict"},
		{"unknown fare class", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"database", domain.ErrPersistence, http.StatusInternalServerError, "internal"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewBookingHandler(mockService)
			c, w := newCreateContext(createBody)

			mockService.On("BookTickets", mock.Anything, mock.Anything).Return(nil, tc.err)

			handler.create(c)

			assert.Equal(t, tc.wantStatus, w.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestBookingHandler_get(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "code", Value: "ABCDEF23"}}
	c.Request = httptest.NewRequest("GET", "/bookings/ABCDEF23", nil)

	tickets := []domain.Ticket{{ID: "t1", ConfirmationCode: "ABCDEF23"}, {ID: "t2", ConfirmationCode: "ABCDEF23"}}
	mockService.On("GetBooking", c.Request.Context(), "ABCDEF23").Return(tickets, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Tickets, 2)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "code", Value: "NOPE"}}
	c.Request = httptest.NewRequest("GET", "/bookings/NOPE", nil)

	mockService.On("GetBooking", c.Request.Context(), "NOPE").Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
