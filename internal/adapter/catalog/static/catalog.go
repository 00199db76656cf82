// Package static serves the flight catalog from a JSON fixture file. It
// stands in for the search-and-pricing system that owns flight data in
// production; the checkout flow only needs lookups by ID.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// Catalog is a read-only, in-memory flight catalog loaded from a fixture.
type Catalog struct {
	flights map[string]*domain.Flight
}

// Load reads the fixture file and builds a catalog from it.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog fixture: %w", err)
	}

	var flights []*domain.Flight
	if err := json.Unmarshal(raw, &flights); err != nil {
		return nil, fmt.Errorf("decode catalog fixture: %w", err)
	}
	return New(flights)
}

// New builds a catalog from the given flights.
func New(flights []*domain.Flight) (*Catalog, error) {
	byID := make(map[string]*domain.Flight, len(flights))
	for _, f := range flights {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: catalog flight without an ID", domain.ErrInvalidRequest)
		}
		if f.TotalSeats < 1 {
			return nil, fmt.Errorf("%w: flight %s has no seats", domain.ErrInvalidRequest, f.ID)
		}
		if _, ok := byID[f.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate flight ID %s", domain.ErrInvalidRequest, f.ID)
		}
		byID[f.ID] = f
	}
	return &Catalog{flights: byID}, nil
}

// GetFlight implements domain.FlightCatalog.
func (c *Catalog) GetFlight(_ context.Context, flightID string) (*domain.Flight, error) {
	flight, ok := c.flights[flightID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlightNotFound, flightID)
	}
	copied := *flight
	return &copied, nil
}

// Flights returns every flight in the catalog, for inventory warm-up at boot.
func (c *Catalog) Flights() []*domain.Flight {
	result := make([]*domain.Flight, 0, len(c.flights))
	for _, f := range c.flights {
		copied := *f
		result = append(result, &copied)
	}
	return result
}
