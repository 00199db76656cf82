// Package domain contains the core business entities and rules for the booking
// checkout system. These entities are transport- and storage-agnostic and form
// the foundation upon which all other components are built.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the booking domain. Callers should match these with
// errors.Is; services wrap them with additional context using fmt.Errorf("%w: ...").
var (
	// ErrInvalidRequest indicates a malformed or semantically invalid request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidQuantity indicates a line item quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrFlightNotFound indicates the requested flight does not exist in the catalog.
	ErrFlightNotFound = errors.New("flight not found")

	// ErrLineItemNotFound indicates the referenced cart line item does not exist.
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrHoldNotFound indicates the referenced seat hold does not exist.
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldExpired indicates the hold's TTL elapsed before confirmation.
	ErrHoldExpired = errors.New("hold expired")

	// ErrOutOfCapacity indicates the flight has no remaining unreserved seats.
	ErrOutOfCapacity = errors.New("flight is out of capacity")

	// ErrSeatAlreadyTaken indicates the explicitly requested seat is held or confirmed.
	ErrSeatAlreadyTaken = errors.New("seat already taken")

	// ErrCartEmpty indicates a checkout was attempted against an empty cart.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrInventoryConflict indicates checkout could not secure the cart's
	// inventory; the cart is left intact so the user can retry.
	ErrInventoryConflict = errors.New("inventory conflict")

	// ErrPaymentDeclined indicates the payment gateway rejected the charge.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentUnavailable indicates the payment gateway could not be reached.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")

	// ErrOrderNotRefundable indicates the order's status does not permit a refund.
	ErrOrderNotRefundable = errors.New("order is not refundable")
)

// ConflictItem identifies a single cart line item that blocked a checkout,
// together with the reason it could not be secured.
type ConflictItem struct {
	// LineItemID is the cart line item affected by the conflict.
	LineItemID string `json:"line_item_id"`

	// FlightID is the flight the line item refers to.
	FlightID string `json:"flight_id"`

	// Reason is a short machine-readable cause (e.g. "hold_expired", "seat_taken").
	Reason string `json:"reason"`
}

// Conflict reasons reported in ConflictItem.Reason.
const (
	ConflictReasonHoldExpired   = "hold_expired"
	ConflictReasonHoldNotFound  = "hold_not_found"
	ConflictReasonSeatTaken     = "seat_taken"
	ConflictReasonOutOfCapacity = "out_of_capacity"
)

// InventoryConflictError reports which line items prevented a checkout from
// completing. It wraps ErrInventoryConflict so callers can match the class
// with errors.Is while still surfacing per-item detail to the client.
type InventoryConflictError struct {
	Items []ConflictItem
}

// Error implements the error interface.
func (e *InventoryConflictError) Error() string {
	if len(e.Items) == 0 {
		return ErrInventoryConflict.Error()
	}
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		parts[i] = fmt.Sprintf("%s (%s)", item.LineItemID, item.Reason)
	}
	return fmt.Sprintf("inventory conflict: %s", strings.Join(parts, ", "))
}

// Unwrap allows errors.Is(err, ErrInventoryConflict) to match.
func (e *InventoryConflictError) Unwrap() error {
	return ErrInventoryConflict
}

// NewInventoryConflictError creates an InventoryConflictError for the given items.
func NewInventoryConflictError(items ...ConflictItem) *InventoryConflictError {
	return &InventoryConflictError{Items: items}
}
