package email

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/airticketing/internal/kafka"
	"github.com/Domenick1991/airticketing/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookedEvent() kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:             kafka.EventTicketsBooked,
		ConfirmationCode: "QWERTY23",
		FlightID:         4,
		FareCents:        12345,
		Status:           "UNPAID",
		Tickets: []kafka.TicketLine{
			{TicketID: "t1", SeatNumber: "1A", PassengerName: "Ann", Email: "ann@example.com"},
			{TicketID: "t2", SeatNumber: "1B", PassengerName: "Bob"},
		},
	}
}

func TestCompose(t *testing.T) {
	messages := Compose(bookedEvent())

	require.Len(t, messages, 1)
	assert.Equal(t, "ann@example.com", messages[0].To)
	assert.Equal(t, "Booking QWERTY23 confirmed", messages[0].Subject)
	assert.Contains(t, messages[0].Body, "seat 1A on flight 4")
	assert.Contains(t, messages[0].Body, "Fare: 123.45")
}

func TestSender_Send(t *testing.T) {
	s := NewSender(logger.Discard())
	var sent []Message
	s.deliver = func(_ context.Context, m Message) error {
		sent = append(sent, m)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), bookedEvent()))
	assert.Len(t, sent, 1)

	other := bookedEvent()
	other.Type = "something_else"
	require.NoError(t, s.Send(context.Background(), other))
	assert.Len(t, sent, 1)
}

func TestSender_SendError(t *testing.T) {
	s := NewSender(logger.Discard())
	s.deliver = func(context.Context, Message) error { return errors.New("relay refused") }

	err := s.Send(context.Background(), bookedEvent())
	assert.ErrorContains(t, err, "ann@example.com")
}

func TestSender_DefaultDelivery(t *testing.T) {
	assert.NoError(t, NewSender(logger.Discard()).Send(context.Background(), bookedEvent()))
}
