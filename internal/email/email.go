package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/airticketing/internal/kafka"
	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers booking notifications. Delivery is a structured log line;
// an SMTP relay can replace deliver without touching the worker.
type Sender struct {
	log     logrus.FieldLogger
	deliver func(ctx context.Context, m Message) error
}

func NewSender(log logrus.FieldLogger) *Sender {
	s := &Sender{log: log}
	s.deliver = s.logMessage
	return s
}

// Send notifies every passenger of the booking who left an email address.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Type != kafka.EventTicketsBooked {
		s.log.WithField("type", event.Type).Debug("ignoring event")
		return nil
	}
	for _, m := range Compose(event) {
		if err := s.deliver(ctx, m); err != nil {
			return fmt.Errorf("send to %s: %w", m.To, err)
		}
	}
	return nil
}

func Compose(event kafka.BookingEvent) []Message {
	var messages []Message
	for _, t := range event.Tickets {
		if strings.TrimSpace(t.Email) == "" {
			continue
		}
		messages = append(messages, Message{
			To:      t.Email,
			Subject: fmt.Sprintf("Booking %s confirmed", event.ConfirmationCode),
			Body: fmt.Sprintf("Dear %s,\n\nseat %s on flight %d is reserved for you.\nFare: %d.%02d\nStatus: %s\n",
				t.PassengerName, t.SeatNumber, event.FlightID, event.FareCents/100, event.FareCents%100, event.Status),
		})
	}
	return messages
}

func (s *Sender) logMessage(_ context.Context, m Message) error {
	s.log.WithFields(logrus.Fields{
		"to":      m.To,
		"subject": m.Subject,
	}).Info("email sent")
	return nil
}
