// Package memory provides in-process implementations of the storage ports.
// They back unit tests and single-node deployments where no external
// infrastructure is available.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// flightRecord pairs a flight's inventory with its own lock so that
// contention on one flight never blocks operations on another.
type flightRecord struct {
	mu  sync.Mutex
	inv *domain.FlightInventory
}

// InventoryStore is an in-memory implementation of domain.InventoryStore.
// Updates run under a per-flight mutex, and mutations are applied to a copy
// that only replaces the stored state when the update function succeeds.
type InventoryStore struct {
	mu      sync.RWMutex
	flights map[string]*flightRecord
}

// NewInventoryStore creates an empty in-memory inventory store.
func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		flights: make(map[string]*flightRecord),
	}
}

// Ensure creates the flight's inventory record if it does not exist yet.
func (s *InventoryStore) Ensure(_ context.Context, flightID string, totalSeats int) error {
	if flightID == "" {
		return fmt.Errorf("%w: flight ID is required", domain.ErrInvalidRequest)
	}
	if totalSeats < 1 {
		return fmt.Errorf("%w: total seats must be at least 1", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[flightID]; !ok {
		s.flights[flightID] = &flightRecord{
			inv: domain.NewFlightInventory(flightID, totalSeats),
		}
	}
	return nil
}

// Update runs fn against the flight's inventory under its per-flight lock.
// The stored state is replaced only when fn returns nil, so a failed update
// leaves the inventory untouched.
func (s *InventoryStore) Update(_ context.Context, flightID string, fn func(inv *domain.FlightInventory) error) error {
	rec, err := s.record(flightID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	working := rec.inv.Clone()
	if err := fn(working); err != nil {
		return err
	}
	rec.inv = working
	return nil
}

// View runs fn against a copy of the flight's inventory.
func (s *InventoryStore) View(_ context.Context, flightID string, fn func(inv *domain.FlightInventory) error) error {
	rec, err := s.record(flightID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	working := rec.inv.Clone()
	rec.mu.Unlock()

	return fn(working)
}

// FlightIDs lists every flight with inventory state.
func (s *InventoryStore) FlightIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.flights))
	for id := range s.flights {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *InventoryStore) record(flightID string) (*flightRecord, error) {
	s.mu.RLock()
	rec, ok := s.flights[flightID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no inventory for flight %s", domain.ErrFlightNotFound, flightID)
	}
	return rec, nil
}
