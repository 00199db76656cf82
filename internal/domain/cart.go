package domain

import (
	"fmt"
	"time"
)

// BaggageType enumerates the baggage options a line item can carry.
type BaggageType string

const (
	// BaggageCabinOnly includes cabin baggage only.
	BaggageCabinOnly BaggageType = "cabin_only"

	// BaggageChecked includes a checked bag in addition to cabin baggage.
	BaggageChecked BaggageType = "checked"
)

// validBaggageTypes defines the allowed baggage selections.
// An empty value defaults to cabin-only.
var validBaggageTypes = map[BaggageType]bool{
	"":               true,
	BaggageCabinOnly: true,
	BaggageChecked:   true,
}

// CartLineItem is one entry in a cart: a quantity of a given flight together
// with the user's seat and baggage preferences. The unit price is snapshotted
// at add-time so mid-session catalog price changes never surprise the user;
// checkout re-validates against the ledger, not the price.
type CartLineItem struct {
	// ID is the unique line item identifier
	ID string `json:"id"`

	// FlightID is the flight this line reserves capacity on
	FlightID string `json:"flightId"`

	// FlightNumber is the airline's flight number, snapshotted at add-time
	FlightNumber string `json:"flightNumber"`

	// Quantity is the number of capacity units (seats) requested
	Quantity int `json:"quantity"`

	// SeatRequest describes the seat selection preference
	SeatRequest SeatRequest `json:"seatRequest"`

	// BaggageType is the baggage selection for every unit in this line
	BaggageType BaggageType `json:"baggageType"`

	// UnitPrice is the per-seat price snapshot captured at add-time
	UnitPrice PriceInfo `json:"unitPrice"`

	// HoldIDs are the ledger holds backing this line, one per unit
	HoldIDs []string `json:"holdIds"`

	// AddedAt is when the line was added to the cart
	AddedAt time.Time `json:"addedAt"`
}

// Subtotal returns quantity times the snapshotted unit price.
func (li *CartLineItem) Subtotal() float64 {
	return li.UnitPrice.Amount * float64(li.Quantity)
}

// Cart is a single user's mutable collection of pending line items. Insertion
// order is preserved for display. Totals are always derived from the line
// items on read and never stored as independent state.
//
// Cart is not safe for concurrent use; the cart service serializes access
// per user.
type Cart struct {
	// UserID is the cart's sole owner
	UserID string `json:"userId"`

	// Items is the ordered sequence of line items
	Items []*CartLineItem `json:"items"`

	// CreatedAt is when the cart was lazily created on first add
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the cart was last mutated
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCart creates an empty cart owned by the given user.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AddLine appends a line item, preserving insertion order.
func (c *Cart) AddLine(item *CartLineItem, now time.Time) {
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
}

// Line returns the line item with the given ID, or nil when absent.
func (c *Cart) Line(lineItemID string) *CartLineItem {
	for _, li := range c.Items {
		if li.ID == lineItemID {
			return li
		}
	}
	return nil
}

// RemoveLine removes the line item with the given ID, keeping the order of
// the remaining lines. It fails with ErrLineItemNotFound when absent.
func (c *Cart) RemoveLine(lineItemID string, now time.Time) (*CartLineItem, error) {
	for i, li := range c.Items {
		if li.ID == lineItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = now
			return li, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLineItemNotFound, lineItemID)
}

// TotalPrice returns the sum of all line subtotals, computed on read.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, li := range c.Items {
		total += li.Subtotal()
	}
	return total
}

// TotalQuantity returns the sum of all line quantities, computed on read.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, li := range c.Items {
		total += li.Quantity
	}
	return total
}

// CartSnapshot is an immutable read model of a cart with derived totals.
type CartSnapshot struct {
	// UserID is the cart owner
	UserID string `json:"userId"`

	// Items is a copy of the cart's line items in insertion order
	Items []CartLineItem `json:"items"`

	// TotalPrice is the derived sum of unit price times quantity
	TotalPrice float64 `json:"totalPrice"`

	// TotalQuantity is the derived sum of quantities
	TotalQuantity int `json:"totalQuantity"`

	// Currency is the cart's currency, taken from the first line item
	Currency string `json:"currency,omitempty"`
}

// Snapshot builds a CartSnapshot with totals computed from the line items.
// Line items are copied deeply, so later cart mutations never show through
// a snapshot handed to a caller.
func (c *Cart) Snapshot() CartSnapshot {
	snap := CartSnapshot{
		UserID:        c.UserID,
		Items:         make([]CartLineItem, len(c.Items)),
		TotalPrice:    c.TotalPrice(),
		TotalQuantity: c.TotalQuantity(),
	}
	for i, li := range c.Items {
		item := *li
		item.HoldIDs = append([]string(nil), li.HoldIDs...)
		snap.Items[i] = item
	}
	if len(c.Items) > 0 {
		snap.Currency = c.Items[0].UnitPrice.Currency
	}
	return snap
}

// ValidBaggageType reports whether the baggage selection is allowed.
func ValidBaggageType(b BaggageType) bool {
	return validBaggageTypes[b]
}
