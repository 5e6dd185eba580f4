package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractDateLabel(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  string
	}{
		{name: "zip archive", entry: "fo010124.zip", want: "01-JAN-2024"},
		{name: "plain folder", entry: "fo311299", want: "31-DEC-1999"},
		{name: "century split low", entry: "fo150650", want: "15-JUN-2050"},
		{name: "century split high", entry: "fo150651", want: "15-JUN-1951"},
		{name: "digits before suffix ignored", entry: "fo2024archive010124.zip", want: "01-JAN-2024"},
		{name: "only text after first dot stripped", entry: "fo010124.csv.zip", want: "01-JAN-2024"},
		{name: "month out of range", entry: "fo011324.zip", want: ""},
		{name: "month zero", entry: "fo010024.zip", want: ""},
		{name: "no trailing digits", entry: "fodata.zip", want: ""},
		{name: "too few digits", entry: "fo0124.zip", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDateLabel(tt.entry))
		})
	}
}

func TestExtractDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ExtractDate("fo010124.zip"))

	// A 6-digit suffix that passes the month check but is not a real calendar
	// date resolves to the zero time.
	assert.True(t, ExtractDate("fo300224.zip").IsZero())
	assert.True(t, ExtractDate("fodata.zip").IsZero())
}
