package api

import (
	"fmt"
	"net/http"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/Domenick1991/airticketing/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type passengerRequest struct {
	Name      string `json:"name"`
	CitizenID string `json:"citizen_id"`
	Email     string `json:"email"`
}

type createBookingRequest struct {
	FlightID    int64              `json:"flight_id"`
	FareClassID int64              `json:"fare_class_id"`
	Passengers  []passengerRequest `json:"passengers"`
	SeatNumbers []string           `json:"seat_numbers"`
	CustomerID  *int64             `json:"customer_id"`
}

type bookingResponse struct {
	ConfirmationCode string          `json:"confirmation_code"`
	Tickets          []domain.Ticket `json:"tickets"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	router.POST("", append(middleware, h.create)...)
	router.GET("/:code", h.get)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	passengers := make([]domain.PassengerDescriptor, len(req.Passengers))
	for i, p := range req.Passengers {
		passengers[i] = domain.PassengerDescriptor{FullName: p.Name, CitizenID: p.CitizenID, Email: p.Email}
	}

	tickets, err := h.service.BookTickets(c.Request.Context(), domain.BookingRequest{
		FlightID:    req.FlightID,
		FareClassID: req.FareClassID,
		Passengers:  passengers,
		SeatNumbers: req.SeatNumbers,
		CustomerID:  req.CustomerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{
		ConfirmationCode: tickets[0].ConfirmationCode,
		Tickets:          tickets,
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	tickets, err := h.service.GetBooking(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse{
		ConfirmationCode: tickets[0].ConfirmationCode,
		Tickets:          tickets,
	})
}
