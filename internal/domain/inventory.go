package domain

import (
	"fmt"
	"time"
)

// seatsPerRow is the cabin layout used to derive seat numbers from capacity.
// Seats are numbered row-major: 1A..1F, 2A..2F, and so on.
const seatsPerRow = 6

// SeatRequestKind enumerates the ways a cart can reserve capacity.
type SeatRequestKind string

const (
	// SeatRequestExplicit reserves a specific seat number (e.g., "12A").
	SeatRequestExplicit SeatRequestKind = "explicit"

	// SeatRequestRandom reserves any free seat, chosen by the ledger.
	SeatRequestRandom SeatRequestKind = "random"

	// SeatRequestDefer reserves generic capacity without binding a seat;
	// the seat is assigned later (e.g., at check-in).
	SeatRequestDefer SeatRequestKind = "defer"
)

// SeatRequest describes how a single capacity unit should be reserved.
type SeatRequest struct {
	// Kind selects explicit, random, or deferred seat selection
	Kind SeatRequestKind `json:"kind"`

	// SeatNumber is the requested seat for explicit requests (e.g., "12A")
	SeatNumber string `json:"seatNumber,omitempty"`
}

// Validate checks the seat request for structural correctness.
func (r SeatRequest) Validate() error {
	switch r.Kind {
	case SeatRequestExplicit:
		if r.SeatNumber == "" {
			return fmt.Errorf("%w: explicit seat request requires a seat number", ErrInvalidRequest)
		}
	case SeatRequestRandom, SeatRequestDefer:
		if r.SeatNumber != "" {
			return fmt.Errorf("%w: seat number is only valid for explicit requests", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown seat request kind %q", ErrInvalidRequest, r.Kind)
	}
	return nil
}

// SeatHold is a time-bounded soft reservation of a seat or generic capacity
// unit. A hold must be confirmed into an allocation or released; expired
// holds are swept and their capacity returned to the pool.
type SeatHold struct {
	// ID is the unique hold identifier returned to the cart
	ID string `json:"id"`

	// FlightID is the flight the hold reserves capacity on
	FlightID string `json:"flightId"`

	// SeatNumber is the held seat; empty for capacity-only (deferred) holds
	SeatNumber string `json:"seatNumber,omitempty"`

	// ExpiresAt is when the hold lapses and its capacity is reclaimed
	ExpiresAt time.Time `json:"expiresAt"`

	// CreatedAt is when the hold was placed
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the hold's TTL has elapsed at the given instant.
func (h *SeatHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// SeatAllocation is a confirmed, permanent seat assignment produced by
// confirming a hold. Allocations are released only by refund/cancellation.
type SeatAllocation struct {
	// FlightID is the flight the seat is allocated on
	FlightID string `json:"flightId"`

	// HoldID is the hold this allocation was converted from
	HoldID string `json:"holdId"`

	// SeatNumber is the allocated seat; empty for unassigned capacity
	SeatNumber string `json:"seatNumber,omitempty"`
}

// FlightInventory tracks the reservation state of a single flight: which
// seats are confirmed, which are softly held, and how much unassigned
// capacity is committed. All fields are exported and JSON-tagged so the
// structure can round-trip through persistent inventory stores.
//
// The invariant maintained by every mutation:
//
//	confirmed + active holds <= TotalSeats
//
// FlightInventory itself is not safe for concurrent use; the inventory
// store serializes access per flight.
type FlightInventory struct {
	// FlightID identifies the flight
	FlightID string `json:"flightId"`

	// TotalSeats is the physical capacity
	TotalSeats int `json:"totalSeats"`

	// ConfirmedSeats maps confirmed seat numbers to the hold that confirmed them
	ConfirmedSeats map[string]string `json:"confirmedSeats"`

	// UnassignedConfirmed tracks confirmed capacity units without a seat
	// number, keyed by the hold that confirmed each unit
	UnassignedConfirmed map[string]struct{} `json:"unassignedConfirmed"`

	// Holds maps hold IDs to active (possibly expired, not yet swept) holds
	Holds map[string]*SeatHold `json:"holds"`
}

// NewFlightInventory creates an empty inventory for a flight.
func NewFlightInventory(flightID string, totalSeats int) *FlightInventory {
	return &FlightInventory{
		FlightID:            flightID,
		TotalSeats:          totalSeats,
		ConfirmedSeats:      make(map[string]string),
		UnassignedConfirmed: make(map[string]struct{}),
		Holds:               make(map[string]*SeatHold),
	}
}

// Clone returns a deep copy of the inventory. Stores hand copies to callers
// so readers never observe in-flight mutations.
func (f *FlightInventory) Clone() *FlightInventory {
	clone := &FlightInventory{
		FlightID:            f.FlightID,
		TotalSeats:          f.TotalSeats,
		ConfirmedSeats:      make(map[string]string, len(f.ConfirmedSeats)),
		UnassignedConfirmed: make(map[string]struct{}, len(f.UnassignedConfirmed)),
		Holds:               make(map[string]*SeatHold, len(f.Holds)),
	}
	for seat, holdID := range f.ConfirmedSeats {
		clone.ConfirmedSeats[seat] = holdID
	}
	for holdID := range f.UnassignedConfirmed {
		clone.UnassignedConfirmed[holdID] = struct{}{}
	}
	for id, h := range f.Holds {
		held := *h
		clone.Holds[id] = &held
	}
	return clone
}

// normalize repairs nil maps after JSON round-trips through a store.
func (f *FlightInventory) normalize() {
	if f.ConfirmedSeats == nil {
		f.ConfirmedSeats = make(map[string]string)
	}
	if f.UnassignedConfirmed == nil {
		f.UnassignedConfirmed = make(map[string]struct{})
	}
	if f.Holds == nil {
		f.Holds = make(map[string]*SeatHold)
	}
}

// ConfirmedCount returns the number of confirmed capacity units.
func (f *FlightInventory) ConfirmedCount() int {
	return len(f.ConfirmedSeats) + len(f.UnassignedConfirmed)
}

// ActiveHoldCount returns the number of holds that have not expired.
func (f *FlightInventory) ActiveHoldCount(now time.Time) int {
	count := 0
	for _, h := range f.Holds {
		if !h.Expired(now) {
			count++
		}
	}
	return count
}

// Available returns the number of free capacity units at the given instant.
// Expired holds do not count against availability.
func (f *FlightInventory) Available(now time.Time) int {
	return f.TotalSeats - f.ConfirmedCount() - f.ActiveHoldCount(now)
}

// SweepExpired removes all holds whose expiry has passed and returns their IDs.
func (f *FlightInventory) SweepExpired(now time.Time) []string {
	f.normalize()
	var expired []string
	for id, h := range f.Holds {
		if h.Expired(now) {
			expired = append(expired, id)
			delete(f.Holds, id)
		}
	}
	return expired
}

// PlaceHold reserves one capacity unit under the given hold ID. Expired holds
// are swept first so stale reservations never block a fresh request.
//
// For explicit requests, it fails with ErrSeatAlreadyTaken when the seat is
// held or confirmed, and with ErrInvalidRequest when the seat number is not
// part of the aircraft's seat map. For random requests any free seat is
// chosen; for deferred requests capacity is reserved without a seat.
func (f *FlightInventory) PlaceHold(holdID string, req SeatRequest, ttl time.Duration, now time.Time) (*SeatHold, error) {
	f.SweepExpired(now)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.Available(now) < 1 {
		return nil, fmt.Errorf("%w: flight %s", ErrOutOfCapacity, f.FlightID)
	}

	var seat string
	switch req.Kind {
	case SeatRequestExplicit:
		if !f.validSeatNumber(req.SeatNumber) {
			return nil, fmt.Errorf("%w: seat %s does not exist on flight %s", ErrInvalidRequest, req.SeatNumber, f.FlightID)
		}
		if f.seatTaken(req.SeatNumber) {
			return nil, fmt.Errorf("%w: seat %s on flight %s", ErrSeatAlreadyTaken, req.SeatNumber, f.FlightID)
		}
		seat = req.SeatNumber
	case SeatRequestRandom:
		seat = f.firstFreeSeat()
		if seat == "" {
			return nil, fmt.Errorf("%w: flight %s", ErrOutOfCapacity, f.FlightID)
		}
	case SeatRequestDefer:
		seat = ""
	}

	hold := &SeatHold{
		ID:         holdID,
		FlightID:   f.FlightID,
		SeatNumber: seat,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	f.Holds[holdID] = hold
	return hold, nil
}

// ReleaseHold removes a hold and returns its capacity to the pool.
// It is idempotent: releasing a missing or already-swept hold is a no-op.
// The boolean reports whether a hold was actually removed.
func (f *FlightInventory) ReleaseHold(holdID string) bool {
	f.normalize()
	if _, ok := f.Holds[holdID]; !ok {
		return false
	}
	delete(f.Holds, holdID)
	return true
}

// ConfirmHold converts a hold into a permanent allocation. It fails with
// ErrHoldNotFound when the hold does not exist (or was swept) and with
// ErrHoldExpired when the TTL elapsed; an expired hold is removed as a side
// effect so its capacity returns to the pool immediately.
func (f *FlightInventory) ConfirmHold(holdID string, now time.Time) (SeatAllocation, error) {
	f.normalize()
	hold, ok := f.Holds[holdID]
	if !ok {
		return SeatAllocation{}, fmt.Errorf("%w: %s", ErrHoldNotFound, holdID)
	}
	if hold.Expired(now) {
		delete(f.Holds, holdID)
		return SeatAllocation{}, fmt.Errorf("%w: %s", ErrHoldExpired, holdID)
	}

	delete(f.Holds, holdID)
	if hold.SeatNumber != "" {
		f.ConfirmedSeats[hold.SeatNumber] = holdID
	} else {
		f.UnassignedConfirmed[holdID] = struct{}{}
	}

	return SeatAllocation{
		FlightID:   f.FlightID,
		HoldID:     holdID,
		SeatNumber: hold.SeatNumber,
	}, nil
}

// ReleaseAllocation reverses a confirmed allocation, returning its capacity
// to the pool. Used by checkout compensation and refunds. Idempotent: an
// allocation that is no longer confirmed is a no-op, and a release is keyed
// to its hold so a duplicate or stale release can never free capacity that
// a different hold has since confirmed.
func (f *FlightInventory) ReleaseAllocation(alloc SeatAllocation) {
	f.normalize()
	if alloc.SeatNumber != "" {
		if f.ConfirmedSeats[alloc.SeatNumber] == alloc.HoldID {
			delete(f.ConfirmedSeats, alloc.SeatNumber)
		}
		return
	}
	delete(f.UnassignedConfirmed, alloc.HoldID)
}

// seatTaken reports whether the seat is confirmed or held by any hold,
// including expired holds (callers sweep before checking).
func (f *FlightInventory) seatTaken(seat string) bool {
	if _, ok := f.ConfirmedSeats[seat]; ok {
		return true
	}
	for _, h := range f.Holds {
		if h.SeatNumber == seat {
			return true
		}
	}
	return false
}

// firstFreeSeat returns the lowest-numbered free seat, or "" when none remain.
func (f *FlightInventory) firstFreeSeat() string {
	for i := 0; i < f.TotalSeats; i++ {
		seat := SeatNumberAt(i)
		if !f.seatTaken(seat) {
			return seat
		}
	}
	return ""
}

// validSeatNumber reports whether the seat exists on this aircraft.
func (f *FlightInventory) validSeatNumber(seat string) bool {
	idx, ok := seatIndex(seat)
	return ok && idx < f.TotalSeats
}

// SeatNumberAt returns the seat number for a zero-based capacity index,
// e.g. index 0 -> "1A", index 6 -> "2A".
func SeatNumberAt(index int) string {
	row := index/seatsPerRow + 1
	letter := rune('A' + index%seatsPerRow)
	return fmt.Sprintf("%d%c", row, letter)
}

// seatIndex parses a seat number back into its zero-based capacity index.
func seatIndex(seat string) (int, bool) {
	if len(seat) < 2 {
		return 0, false
	}
	letter := seat[len(seat)-1]
	if letter < 'A' || letter >= 'A'+seatsPerRow {
		return 0, false
	}
	row := 0
	for _, c := range seat[:len(seat)-1] {
		if c < '0' || c > '9' {
			return 0, false
		}
		row = row*10 + int(c-'0')
	}
	if row < 1 {
		return 0, false
	}
	return (row-1)*seatsPerRow + int(letter-'A'), true
}
