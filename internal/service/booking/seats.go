package booking

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SeatLayout turns a flight's seat sequence value into a seat label.
// Sequence 1 is the first letter of row 1.
type SeatLayout struct {
	PerRow  int
	Letters string
}

var DefaultSeatLayout = SeatLayout{PerRow: 6, Letters: "ABCDEF"}

func (l SeatLayout) Seat(seq int64) string {
	n := seq - 1
	row := n/int64(l.PerRow) + 1
	letter := l.Letters[n%int64(l.PerRow)]
	return fmt.Sprintf("%d%c", row, letter)
}

// Range labels the count seats ending at last, the value returned by
// AdvanceSeatSequence.
func (l SeatLayout) Range(last int64, count int) []string {
	seats := make([]string, 0, count)
	for seq := last - int64(count) + 1; seq <= last; seq++ {
		seats = append(seats, l.Seat(seq))
	}
	return seats
}

func normalizeSeat(seat string) string {
	return strings.ToUpper(strings.TrimSpace(seat))
}

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func newConfirmationCode(length int) string {
	id := uuid.New()
	return codeEncoding.EncodeToString(id[:])[:length]
}
