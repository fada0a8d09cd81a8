package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatLayout_Seat(t *testing.T) {
	testCases := []struct {
		layout SeatLayout
		seq    int64
		want   string
	}{
		{DefaultSeatLayout, 1, "1A"},
		{DefaultSeatLayout, 6, "1F"},
		{DefaultSeatLayout, 7, "2A"},
		{DefaultSeatLayout, 60, "10F"},
		{SeatLayout{PerRow: 4, Letters: "ABCD"}, 5, "2A"},
		{SeatLayout{PerRow: 3, Letters: "ABCDEF"}, 4, "2A"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.layout.Seat(tc.seq))
	}
}

func TestSeatLayout_Range(t *testing.T) {
	assert.Equal(t, []string{"1E", "1F", "2A"}, DefaultSeatLayout.Range(7, 3))
	assert.Equal(t, []string{"1A"}, DefaultSeatLayout.Range(1, 1))
}

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code := newConfirmationCode(8)
		assert.Len(t, code, 8)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.Empty(t, strings.Trim(code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"))
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}
