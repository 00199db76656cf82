package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/timeutil"
)

// AddItemInput carries the user's selection when adding a line to the cart.
type AddItemInput struct {
	// FlightID is the flight to reserve capacity on
	FlightID string

	// Quantity is the number of seats requested (>= 1)
	Quantity int

	// SeatNumber requests a specific seat (e.g., "12A"); requires Quantity 1
	SeatNumber string

	// DeferSeatSelection reserves capacity without binding seats
	DeferSeatSelection bool

	// AllocateRandomSeat lets the ledger pick free seats
	AllocateRandomSeat bool

	// BaggageType is the baggage selection for the line
	BaggageType domain.BaggageType
}

// seatRequest translates the input flags into a ledger seat request.
// Exactly one selection mode may be chosen; no selection defaults to
// deferred seat assignment.
func (in AddItemInput) seatRequest() (domain.SeatRequest, error) {
	modes := 0
	if in.SeatNumber != "" {
		modes++
	}
	if in.DeferSeatSelection {
		modes++
	}
	if in.AllocateRandomSeat {
		modes++
	}
	if modes > 1 {
		return domain.SeatRequest{}, fmt.Errorf("%w: choose one of seat number, random seat, or deferred selection", domain.ErrInvalidRequest)
	}

	switch {
	case in.SeatNumber != "":
		return domain.SeatRequest{Kind: domain.SeatRequestExplicit, SeatNumber: in.SeatNumber}, nil
	case in.AllocateRandomSeat:
		return domain.SeatRequest{Kind: domain.SeatRequestRandom}, nil
	default:
		return domain.SeatRequest{Kind: domain.SeatRequestDefer}, nil
	}
}

// CartService manages each user's cart of pending line items. Carts are
// created lazily on first add and exist only for the session's lifetime;
// the holds backing them live in the inventory ledger.
type CartService interface {
	// AddItem adds a line item, placing one ledger hold per unit of quantity.
	AddItem(ctx context.Context, userID string, input AddItemInput) (domain.CartSnapshot, error)

	// RemoveItem releases the line's holds and removes it from the cart.
	RemoveItem(ctx context.Context, userID, lineItemID string) (domain.CartSnapshot, error)

	// UpdateQuantity adjusts the line's holds up or down to match the new
	// quantity. The adjustment is all-or-nothing: on failure the cart is
	// left unchanged.
	UpdateQuantity(ctx context.Context, userID, lineItemID string, quantity int) (domain.CartSnapshot, error)

	// Snapshot returns the cart's items and derived totals.
	Snapshot(ctx context.Context, userID string) (domain.CartSnapshot, error)

	// Abandon eagerly releases every hold in the cart and discards it,
	// without waiting for the hold TTL.
	Abandon(ctx context.Context, userID string) error

	// Reset removes exactly the named line items without touching their
	// holds. Used by checkout after those lines' holds have been consumed
	// by confirmation; lines added since the checkout snapshot stay in the
	// cart with their holds intact.
	Reset(userID string, lineItemIDs []string)
}

// cartEntry pairs a cart with its own lock so operations for different
// users never contend.
type cartEntry struct {
	mu   sync.Mutex
	cart *domain.Cart
}

// cartService implements CartService with an in-process per-user registry.
// Cart state is session-owned and never shared across users; the inventory
// ledger is the only cross-session resource it touches.
type cartService struct {
	mu      sync.Mutex
	entries map[string]*cartEntry

	catalog domain.FlightCatalog
	ledger  InventoryLedger
	clock   timeutil.Clock
	log     zerolog.Logger
}

// NewCartService creates a CartService using the given catalog and ledger.
func NewCartService(catalog domain.FlightCatalog, ledger InventoryLedger, clock timeutil.Clock, log zerolog.Logger) CartService {
	return &cartService{
		entries: make(map[string]*cartEntry),
		catalog: catalog,
		ledger:  ledger,
		clock:   clock,
		log:     log,
	}
}

// entry returns the user's cart entry, creating it on first use.
func (s *cartService) entry(userID string) *cartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &cartEntry{}
		s.entries[userID] = e
	}
	return e
}

// AddItem implements CartService.AddItem.
func (s *cartService) AddItem(ctx context.Context, userID string, input AddItemInput) (domain.CartSnapshot, error) {
	if input.Quantity < 1 {
		return domain.CartSnapshot{}, fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, input.Quantity)
	}
	if input.SeatNumber != "" && input.Quantity != 1 {
		return domain.CartSnapshot{}, fmt.Errorf("%w: an explicit seat binds exactly one unit; add further units separately", domain.ErrInvalidRequest)
	}
	if !domain.ValidBaggageType(input.BaggageType) {
		return domain.CartSnapshot{}, fmt.Errorf("%w: unknown baggage type %q", domain.ErrInvalidRequest, input.BaggageType)
	}

	req, err := input.seatRequest()
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	flight, err := s.catalog.GetFlight(ctx, input.FlightID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	if err := s.ledger.EnsureFlight(ctx, flight); err != nil {
		return domain.CartSnapshot{}, err
	}

	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	// One hold per unit of quantity; all-or-nothing.
	holdIDs, err := s.placeHolds(ctx, flight.ID, req, input.Quantity)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	now := s.clock.Now()
	if e.cart == nil {
		e.cart = domain.NewCart(userID, now)
	}

	line := &domain.CartLineItem{
		ID:           uuid.New().String(),
		FlightID:     flight.ID,
		FlightNumber: flight.FlightNumber,
		Quantity:     input.Quantity,
		SeatRequest:  req,
		BaggageType:  input.BaggageType,
		UnitPrice:    flight.Price,
		HoldIDs:      holdIDs,
		AddedAt:      now,
	}
	e.cart.AddLine(line, now)

	s.log.Info().
		Str("user_id", userID).
		Str("flight_id", flight.ID).
		Str("line_item_id", line.ID).
		Int("quantity", input.Quantity).
		Msg("Line item added to cart")
	return e.cart.Snapshot(), nil
}

// placeHolds places count holds, releasing all of them if any placement fails.
func (s *cartService) placeHolds(ctx context.Context, flightID string, req domain.SeatRequest, count int) ([]string, error) {
	holdIDs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		hold, err := s.ledger.PlaceHold(ctx, flightID, req, 0)
		if err != nil {
			s.releaseHolds(ctx, flightID, holdIDs)
			return nil, err
		}
		holdIDs = append(holdIDs, hold.ID)
	}
	return holdIDs, nil
}

// releaseHolds best-effort releases the given holds.
func (s *cartService) releaseHolds(ctx context.Context, flightID string, holdIDs []string) {
	for _, holdID := range holdIDs {
		if err := s.ledger.ReleaseHold(ctx, flightID, holdID); err != nil {
			s.log.Warn().
				Err(err).
				Str("flight_id", flightID).
				Str("hold_id", holdID).
				Msg("Failed to release hold; it will lapse at TTL")
		}
	}
}

// RemoveItem implements CartService.RemoveItem.
func (s *cartService) RemoveItem(ctx context.Context, userID, lineItemID string) (domain.CartSnapshot, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart == nil {
		return domain.CartSnapshot{}, fmt.Errorf("%w: %s", domain.ErrLineItemNotFound, lineItemID)
	}

	line, err := e.cart.RemoveLine(lineItemID, s.clock.Now())
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	s.releaseHolds(ctx, line.FlightID, line.HoldIDs)

	s.log.Info().
		Str("user_id", userID).
		Str("line_item_id", lineItemID).
		Msg("Line item removed from cart")
	return e.cart.Snapshot(), nil
}

// UpdateQuantity implements CartService.UpdateQuantity.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, lineItemID string, quantity int) (domain.CartSnapshot, error) {
	if quantity < 1 {
		return domain.CartSnapshot{}, fmt.Errorf("%w: got %d", domain.ErrInvalidQuantity, quantity)
	}

	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart == nil {
		return domain.CartSnapshot{}, fmt.Errorf("%w: %s", domain.ErrLineItemNotFound, lineItemID)
	}
	line := e.cart.Line(lineItemID)
	if line == nil {
		return domain.CartSnapshot{}, fmt.Errorf("%w: %s", domain.ErrLineItemNotFound, lineItemID)
	}

	switch delta := quantity - line.Quantity; {
	case delta == 0:
		return e.cart.Snapshot(), nil

	case line.SeatRequest.Kind == domain.SeatRequestExplicit:
		return domain.CartSnapshot{}, fmt.Errorf("%w: an explicit seat line is fixed at one unit", domain.ErrInvalidRequest)

	case delta > 0:
		// Grow: place the extra holds first so the cart stays unchanged
		// when capacity runs out.
		added, err := s.placeHolds(ctx, line.FlightID, line.SeatRequest, delta)
		if err != nil {
			return domain.CartSnapshot{}, err
		}
		line.HoldIDs = append(line.HoldIDs, added...)

	default:
		// Shrink: release the most recently placed holds.
		keep := len(line.HoldIDs) + delta
		s.releaseHolds(ctx, line.FlightID, line.HoldIDs[keep:])
		line.HoldIDs = line.HoldIDs[:keep]
	}

	line.Quantity = quantity
	e.cart.UpdatedAt = s.clock.Now()

	s.log.Info().
		Str("user_id", userID).
		Str("line_item_id", lineItemID).
		Int("quantity", quantity).
		Msg("Line item quantity updated")
	return e.cart.Snapshot(), nil
}

// Snapshot implements CartService.Snapshot. A user without a cart gets an
// empty snapshot; carts are only created on first add.
func (s *cartService) Snapshot(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart == nil {
		return domain.CartSnapshot{UserID: userID, Items: []domain.CartLineItem{}}, nil
	}
	return e.cart.Snapshot(), nil
}

// Abandon implements CartService.Abandon.
func (s *cartService) Abandon(ctx context.Context, userID string) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart == nil {
		return nil
	}
	for _, line := range e.cart.Items {
		s.releaseHolds(ctx, line.FlightID, line.HoldIDs)
	}
	e.cart = nil

	s.log.Info().Str("user_id", userID).Msg("Cart abandoned, holds released")
	return nil
}

// Reset implements CartService.Reset.
func (s *cartService) Reset(userID string, lineItemIDs []string) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cart == nil {
		return
	}
	discard := make(map[string]bool, len(lineItemIDs))
	for _, id := range lineItemIDs {
		discard[id] = true
	}
	kept := e.cart.Items[:0]
	for _, line := range e.cart.Items {
		if !discard[line.ID] {
			kept = append(kept, line)
		}
	}
	e.cart.Items = kept
	if e.cart.IsEmpty() {
		e.cart = nil
		return
	}
	e.cart.UpdatedAt = s.clock.Now()
}
