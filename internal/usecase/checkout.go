package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/timeutil"
)

// CheckoutService converts a cart into an order, reconciling inventory holds
// with payment confirmation atomically or not at all.
//
// Each checkout attempt walks the state machine
//
//	INITIATED -> INVENTORY_CONFIRMED -> PAYMENT_PENDING -> COMPLETED
//
// with explicit compensating releases on every failure path: a checkout that
// fails leaves the cart's line items and every flight's available-seat count
// exactly as they were before the attempt.
type CheckoutService interface {
	// Checkout charges the cart total and persists the resulting order.
	// Fails with ErrCartEmpty, ErrInventoryConflict (carrying the offending
	// line items), or ErrPaymentDeclined; the cart is left intact on all
	// failure paths so the user can retry.
	Checkout(ctx context.Context, userID, paymentToken string) (*domain.Order, error)

	// Refund releases a completed order's seat allocations and marks it REFUNDED.
	Refund(ctx context.Context, userID, orderID string) (*domain.Order, error)

	// GetOrder returns one of the user's orders.
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)

	// ListOrders returns the user's orders, newest first.
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	carts    CartService
	ledger   InventoryLedger
	payments domain.PaymentGateway
	orders   domain.OrderStore
	notifier domain.Notifier
	clock    timeutil.Clock
	log      zerolog.Logger
}

// NewCheckoutService creates a CheckoutService. The notifier may be nil, in
// which case completed checkouts are not announced.
func NewCheckoutService(
	carts CartService,
	ledger InventoryLedger,
	payments domain.PaymentGateway,
	orders domain.OrderStore,
	notifier domain.Notifier,
	clock timeutil.Clock,
	log zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		carts:    carts,
		ledger:   ledger,
		payments: payments,
		orders:   orders,
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

// confirmedLine pairs a cart line with the allocations confirmed for it.
type confirmedLine struct {
	line   domain.CartLineItem
	allocs []domain.SeatAllocation
}

// Checkout implements CheckoutService.Checkout.
func (s *checkoutService) Checkout(ctx context.Context, userID, paymentToken string) (*domain.Order, error) {
	snap, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snap.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	log := s.log.With().Str("user_id", userID).Logger()
	log.Info().
		Int("items", len(snap.Items)).
		Float64("total_price", snap.TotalPrice).
		Msg("Checkout initiated")

	// Step 1: re-validate every hold before touching anything, so a cart
	// with lapsed holds fails fast with the full list of offending items.
	if conflicts := s.validateHolds(ctx, snap.Items); len(conflicts) > 0 {
		log.Warn().Int("conflicts", len(conflicts)).Msg("Checkout blocked by stale holds")
		return nil, domain.NewInventoryConflictError(conflicts...)
	}

	// Step 2: confirm all holds, all-or-nothing across the whole cart.
	confirmed, conflict := s.confirmAll(ctx, snap.Items)
	if conflict != nil {
		log.Warn().Msg("Checkout blocked during confirmation; confirmations rolled back")
		return nil, conflict
	}

	// Step 3: charge outside any inventory lock. The gateway crosses a
	// trust boundary, so failure is compensated, not rolled back.
	if err := s.payments.Charge(ctx, snap.TotalPrice, snap.Currency, paymentToken); err != nil {
		s.releaseConfirmed(ctx, confirmed)
		if errors.Is(err, domain.ErrPaymentDeclined) {
			log.Warn().Err(err).Msg("Payment declined; confirmations rolled back")
			return nil, err
		}
		log.Error().Err(err).Msg("Payment gateway failure; confirmations rolled back")
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}

	// Step 4: persist the order with price-at-purchase snapshots, then
	// clear the purchased lines. Their holds were consumed by confirmation,
	// so Reset must not release them. Only the snapshotted lines are
	// removed; a line added while payment was in flight stays in the cart.
	order := s.buildOrder(userID, snap, confirmed)
	if err := s.orders.Save(ctx, order); err != nil {
		s.releaseConfirmed(ctx, confirmed)
		log.Error().Err(err).Msg("Order persistence failed; confirmations rolled back")
		return nil, fmt.Errorf("save order: %w", err)
	}
	purchased := make([]string, len(snap.Items))
	for i, item := range snap.Items {
		purchased[i] = item.ID
	}
	s.carts.Reset(userID, purchased)

	log.Info().
		Str("order_id", order.ID).
		Float64("total_price", order.TotalPrice).
		Msg("Checkout completed")

	s.notify(ctx, order)
	return order, nil
}

// validateHolds checks that every hold backing the cart is still active.
func (s *checkoutService) validateHolds(ctx context.Context, items []domain.CartLineItem) []domain.ConflictItem {
	var conflicts []domain.ConflictItem
	for _, item := range items {
		for _, holdID := range item.HoldIDs {
			active, err := s.ledger.HoldActive(ctx, item.FlightID, holdID)
			if err != nil || !active {
				conflicts = append(conflicts, domain.ConflictItem{
					LineItemID: item.ID,
					FlightID:   item.FlightID,
					Reason:     domain.ConflictReasonHoldExpired,
				})
				break
			}
		}
	}
	return conflicts
}

// confirmAll converts every hold to an allocation. If any confirmation fails
// it rolls back the allocations already made and returns the conflict.
func (s *checkoutService) confirmAll(ctx context.Context, items []domain.CartLineItem) ([]confirmedLine, error) {
	confirmed := make([]confirmedLine, 0, len(items))
	for _, item := range items {
		cl := confirmedLine{line: item}
		for _, holdID := range item.HoldIDs {
			alloc, err := s.ledger.ConfirmHold(ctx, item.FlightID, holdID)
			if err != nil {
				// Roll back this line's partial confirmations, then
				// every previously confirmed line.
				s.releaseAllocations(ctx, cl.allocs)
				s.releaseConfirmed(ctx, confirmed)
				return nil, domain.NewInventoryConflictError(domain.ConflictItem{
					LineItemID: item.ID,
					FlightID:   item.FlightID,
					Reason:     conflictReason(err),
				})
			}
			cl.allocs = append(cl.allocs, alloc)
		}
		confirmed = append(confirmed, cl)
	}
	return confirmed, nil
}

// conflictReason maps a ledger error to a ConflictItem reason.
func conflictReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrHoldExpired):
		return domain.ConflictReasonHoldExpired
	case errors.Is(err, domain.ErrHoldNotFound):
		return domain.ConflictReasonHoldNotFound
	case errors.Is(err, domain.ErrSeatAlreadyTaken):
		return domain.ConflictReasonSeatTaken
	default:
		return domain.ConflictReasonOutOfCapacity
	}
}

// releaseConfirmed compensates every allocation of every confirmed line.
func (s *checkoutService) releaseConfirmed(ctx context.Context, confirmed []confirmedLine) {
	for _, cl := range confirmed {
		s.releaseAllocations(ctx, cl.allocs)
	}
}

// releaseAllocations best-effort releases the given allocations.
func (s *checkoutService) releaseAllocations(ctx context.Context, allocs []domain.SeatAllocation) {
	for _, alloc := range allocs {
		if err := s.ledger.ReleaseAllocation(ctx, alloc); err != nil {
			s.log.Error().
				Err(err).
				Str("flight_id", alloc.FlightID).
				Str("seat", alloc.SeatNumber).
				Msg("Failed to release allocation during compensation")
		}
	}
}

// buildOrder assembles the durable order from the cart snapshot and the
// confirmed allocations.
func (s *checkoutService) buildOrder(userID string, snap domain.CartSnapshot, confirmed []confirmedLine) *domain.Order {
	now := s.clock.Now()
	order := &domain.Order{
		ID:         uuid.New().String(),
		UserID:     userID,
		Items:      make([]domain.OrderItem, len(confirmed)),
		TotalPrice: snap.TotalPrice,
		Currency:   snap.Currency,
		Status:     domain.OrderStatusCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, cl := range confirmed {
		order.Items[i] = domain.OrderItem{
			ID:           uuid.New().String(),
			FlightID:     cl.line.FlightID,
			FlightNumber: cl.line.FlightNumber,
			Quantity:     cl.line.Quantity,
			UnitPrice:    cl.line.UnitPrice,
			BaggageType:  cl.line.BaggageType,
			Allocations:  cl.allocs,
		}
	}
	return order
}

// notify publishes the order-completed event. Failure to notify never rolls
// back a completed order.
func (s *checkoutService) notify(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}

	var seats []string
	for _, item := range order.Items {
		for _, alloc := range item.Allocations {
			if alloc.SeatNumber != "" {
				seats = append(seats, alloc.SeatNumber)
			}
		}
	}

	event := domain.OrderCompletedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalPrice:  order.TotalPrice,
		Currency:    order.Currency,
		SeatNumbers: seats,
		CompletedAt: order.CreatedAt,
	}
	if err := s.notifier.OrderCompleted(ctx, event); err != nil {
		s.log.Warn().
			Err(err).
			Str("order_id", order.ID).
			Msg("Order confirmation notification failed")
	}
}

// Refund implements CheckoutService.Refund.
func (s *checkoutService) Refund(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Refundable() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrOrderNotRefundable, order.Status)
	}

	for _, item := range order.Items {
		s.releaseAllocations(ctx, item.Allocations)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusRefunded); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = domain.OrderStatusRefunded
	order.UpdatedAt = s.clock.Now()

	s.log.Info().
		Str("user_id", userID).
		Str("order_id", orderID).
		Msg("Order refunded, allocations released")
	return order, nil
}

// GetOrder implements CheckoutService.GetOrder. An order owned by another
// user is reported as not found rather than forbidden.
func (s *checkoutService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return order, nil
}

// ListOrders implements CheckoutService.ListOrders.
func (s *checkoutService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
