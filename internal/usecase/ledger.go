// Package usecase contains the application services for the booking checkout
// system: the inventory ledger, the cart aggregate, and the checkout
// orchestrator.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/timeutil"
)

// DefaultHoldTTL bounds how long an unconfirmed hold retains capacity when
// the caller does not specify a TTL.
const DefaultHoldTTL = 5 * time.Minute

// FlightAvailability is a read model of a flight's reservation state.
type FlightAvailability struct {
	FlightID   string `json:"flightId"`
	TotalSeats int    `json:"totalSeats"`
	Confirmed  int    `json:"confirmed"`
	Held       int    `json:"held"`
	Available  int    `json:"available"`
}

// InventoryLedger tracks per-flight seat capacity and reservation holds.
// It is the only shared mutable resource across user sessions; every
// capacity-changing operation is serialized per flight by the underlying
// store.
type InventoryLedger interface {
	// EnsureFlight initializes ledger state for a flight if absent.
	EnsureFlight(ctx context.Context, flight *domain.Flight) error

	// PlaceHold reserves one capacity unit on the flight for the TTL.
	// A non-positive ttl falls back to the ledger's default.
	PlaceHold(ctx context.Context, flightID string, req domain.SeatRequest, ttl time.Duration) (*domain.SeatHold, error)

	// ReleaseHold returns a hold's capacity to the pool. Idempotent.
	ReleaseHold(ctx context.Context, flightID, holdID string) error

	// ConfirmHold converts a hold into a permanent seat allocation.
	ConfirmHold(ctx context.Context, flightID, holdID string) (domain.SeatAllocation, error)

	// ReleaseAllocation reverses a confirmed allocation (compensation, refunds).
	ReleaseAllocation(ctx context.Context, alloc domain.SeatAllocation) error

	// HoldActive reports whether the hold exists and has not expired.
	HoldActive(ctx context.Context, flightID, holdID string) (bool, error)

	// Availability returns the flight's current reservation counters.
	Availability(ctx context.Context, flightID string) (FlightAvailability, error)

	// SweepExpired releases expired holds on every flight and returns the
	// number of holds released.
	SweepExpired(ctx context.Context) (int, error)
}

// inventoryLedger implements InventoryLedger over a swappable InventoryStore.
type inventoryLedger struct {
	store      domain.InventoryStore
	clock      timeutil.Clock
	defaultTTL time.Duration
	log        zerolog.Logger
}

// LedgerConfig contains configuration options for the inventory ledger.
type LedgerConfig struct {
	DefaultTTL time.Duration
}

// NewInventoryLedger creates an InventoryLedger backed by the given store.
// If config is nil, the default hold TTL is used.
func NewInventoryLedger(store domain.InventoryStore, clock timeutil.Clock, config *LedgerConfig, log zerolog.Logger) InventoryLedger {
	ttl := DefaultHoldTTL
	if config != nil && config.DefaultTTL > 0 {
		ttl = config.DefaultTTL
	}
	return &inventoryLedger{
		store:      store,
		clock:      clock,
		defaultTTL: ttl,
		log:        log,
	}
}

// EnsureFlight implements InventoryLedger.EnsureFlight.
func (l *inventoryLedger) EnsureFlight(ctx context.Context, flight *domain.Flight) error {
	return l.store.Ensure(ctx, flight.ID, flight.TotalSeats)
}

// PlaceHold implements InventoryLedger.PlaceHold. The check-and-reserve is a
// single atomic step inside the store's per-flight critical section, so the
// capacity invariant holds under concurrent requests for the same flight.
func (l *inventoryLedger) PlaceHold(ctx context.Context, flightID string, req domain.SeatRequest, ttl time.Duration) (*domain.SeatHold, error) {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}

	holdID := uuid.New().String()
	var hold *domain.SeatHold

	err := l.store.Update(ctx, flightID, func(inv *domain.FlightInventory) error {
		placed, err := inv.PlaceHold(holdID, req, ttl, l.clock.Now())
		if err != nil {
			return err
		}
		hold = placed
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug().
		Str("flight_id", flightID).
		Str("hold_id", holdID).
		Str("seat", hold.SeatNumber).
		Time("expires_at", hold.ExpiresAt).
		Msg("Hold placed")
	return hold, nil
}

// ReleaseHold implements InventoryLedger.ReleaseHold.
func (l *inventoryLedger) ReleaseHold(ctx context.Context, flightID, holdID string) error {
	return l.store.Update(ctx, flightID, func(inv *domain.FlightInventory) error {
		if inv.ReleaseHold(holdID) {
			l.log.Debug().
				Str("flight_id", flightID).
				Str("hold_id", holdID).
				Msg("Hold released")
		}
		return nil
	})
}

// ConfirmHold implements InventoryLedger.ConfirmHold.
func (l *inventoryLedger) ConfirmHold(ctx context.Context, flightID, holdID string) (domain.SeatAllocation, error) {
	var alloc domain.SeatAllocation
	err := l.store.Update(ctx, flightID, func(inv *domain.FlightInventory) error {
		confirmed, err := inv.ConfirmHold(holdID, l.clock.Now())
		if err != nil {
			return err
		}
		alloc = confirmed
		return nil
	})
	if err != nil {
		return domain.SeatAllocation{}, err
	}

	l.log.Debug().
		Str("flight_id", flightID).
		Str("hold_id", holdID).
		Str("seat", alloc.SeatNumber).
		Msg("Hold confirmed")
	return alloc, nil
}

// ReleaseAllocation implements InventoryLedger.ReleaseAllocation.
func (l *inventoryLedger) ReleaseAllocation(ctx context.Context, alloc domain.SeatAllocation) error {
	err := l.store.Update(ctx, alloc.FlightID, func(inv *domain.FlightInventory) error {
		inv.ReleaseAllocation(alloc)
		return nil
	})
	if err != nil {
		return err
	}

	l.log.Debug().
		Str("flight_id", alloc.FlightID).
		Str("seat", alloc.SeatNumber).
		Msg("Allocation released")
	return nil
}

// HoldActive implements InventoryLedger.HoldActive.
func (l *inventoryLedger) HoldActive(ctx context.Context, flightID, holdID string) (bool, error) {
	active := false
	err := l.store.View(ctx, flightID, func(inv *domain.FlightInventory) error {
		if hold, ok := inv.Holds[holdID]; ok {
			active = !hold.Expired(l.clock.Now())
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return active, nil
}

// Availability implements InventoryLedger.Availability. Expired holds are
// excluded from the held count even before the sweeper removes them.
func (l *inventoryLedger) Availability(ctx context.Context, flightID string) (FlightAvailability, error) {
	var avail FlightAvailability
	err := l.store.View(ctx, flightID, func(inv *domain.FlightInventory) error {
		now := l.clock.Now()
		avail = FlightAvailability{
			FlightID:   inv.FlightID,
			TotalSeats: inv.TotalSeats,
			Confirmed:  inv.ConfirmedCount(),
			Held:       inv.ActiveHoldCount(now),
			Available:  inv.Available(now),
		}
		return nil
	})
	if err != nil {
		return FlightAvailability{}, err
	}
	return avail, nil
}

// SweepExpired implements InventoryLedger.SweepExpired.
func (l *inventoryLedger) SweepExpired(ctx context.Context) (int, error) {
	flightIDs, err := l.store.FlightIDs(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, flightID := range flightIDs {
		err := l.store.Update(ctx, flightID, func(inv *domain.FlightInventory) error {
			expired := inv.SweepExpired(l.clock.Now())
			total += len(expired)
			return nil
		})
		if err != nil {
			return total, err
		}
	}

	if total > 0 {
		l.log.Info().Int("released", total).Msg("Expired holds swept")
	}
	return total, nil
}
