package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
	}{
		{
			name:    "valid RFC3339",
			dateStr: "2026-12-15T08:00:00Z",
		},
		{
			name:    "valid RFC3339 with timezone",
			dateStr: "2026-12-15T08:00:00+07:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(t, tt.dateStr)
			assert.False(t, result.IsZero())
		})
	}
}

func TestPtr(t *testing.T) {
	intPtr := Ptr(42)
	require.NotNil(t, intPtr)
	assert.Equal(t, 42, *intPtr)

	strPtr := Ptr("hello")
	require.NotNil(t, strPtr)
	assert.Equal(t, "hello", *strPtr)
}

func TestSampleFlight(t *testing.T) {
	flight := SampleFlight("FL-001", "GA-203", 30, 150.00)

	assert.Equal(t, "FL-001", flight.ID)
	assert.Equal(t, "GA-203", flight.FlightNumber)
	assert.Equal(t, 30, flight.TotalSeats)
	assert.Equal(t, 150.00, flight.Price.Amount)
	assert.Equal(t, "USD", flight.Price.Currency)
	assert.True(t, flight.Arrival.DateTime.After(flight.Departure.DateTime))
}
