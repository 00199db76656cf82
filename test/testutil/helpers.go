// Package testutil provides test helper functions for unit and integration tests.
package testutil

import (
	"testing"
	"time"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// MustParseTime parses a time string in RFC3339 format.
// It fails the test if parsing fails.
func MustParseTime(t *testing.T, dateStr string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		t.Fatalf("Failed to parse time %s: %v", dateStr, err)
	}
	return parsed
}

// Ptr returns a pointer to the given value.
// Useful for creating pointers to literals in tests.
func Ptr[T any](v T) *T {
	return &v
}

// SampleFlight returns a bookable flight with the given identity, capacity,
// and per-seat price. Departure and arrival times are fixed values so tests
// stay deterministic.
func SampleFlight(id, flightNumber string, totalSeats int, price float64) *domain.Flight {
	return &domain.Flight{
		ID:           id,
		FlightNumber: flightNumber,
		Airline: domain.AirlineInfo{
			Code: "GA",
			Name: "Garuda Indonesia",
		},
		Departure: domain.FlightPoint{
			AirportCode: "CGK",
			Terminal:    "3",
			DateTime:    time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC),
		},
		Arrival: domain.FlightPoint{
			AirportCode: "DPS",
			DateTime:    time.Date(2026, 12, 15, 10, 55, 0, 0, time.UTC),
		},
		Price: domain.PriceInfo{
			Amount:   price,
			Currency: "USD",
		},
		TotalSeats: totalSeats,
		Class:      "economy",
	}
}
