package domain

import "time"

// OrderStatus enumerates the lifecycle states of an order.
type OrderStatus string

const (
	// OrderStatusPending marks an order awaiting asynchronous settlement.
	OrderStatusPending OrderStatus = "PENDING"

	// OrderStatusCompleted marks a paid, ticketed order.
	OrderStatusCompleted OrderStatus = "COMPLETED"

	// OrderStatusFailed marks an order whose settlement ultimately failed.
	OrderStatusFailed OrderStatus = "FAILED"

	// OrderStatusRefunded marks a completed order that was later refunded.
	OrderStatusRefunded OrderStatus = "REFUNDED"
)

// OrderItem captures one cart line at the moment of purchase. The unit price
// is the price-at-purchase snapshot, immutable after creation and distinct
// from the catalog's live price.
type OrderItem struct {
	// ID is the unique order item identifier
	ID string `json:"id"`

	// FlightID is the purchased flight
	FlightID string `json:"flightId"`

	// FlightNumber is the airline's flight number at purchase time
	FlightNumber string `json:"flightNumber"`

	// Quantity is the number of seats purchased
	Quantity int `json:"quantity"`

	// UnitPrice is the immutable price-at-purchase snapshot
	UnitPrice PriceInfo `json:"unitPrice"`

	// BaggageType is the baggage selection carried over from the cart
	BaggageType BaggageType `json:"baggageType"`

	// Allocations are the confirmed seat assignments, one per unit
	Allocations []SeatAllocation `json:"allocations"`
}

// Subtotal returns quantity times the price-at-purchase.
func (oi *OrderItem) Subtotal() float64 {
	return oi.UnitPrice.Amount * float64(oi.Quantity)
}

// Order is the durable record of a successful checkout. Orders are created
// only after payment succeeds; failed checkouts leave no order behind.
type Order struct {
	// ID is the unique order identifier
	ID string `json:"id"`

	// UserID is the purchasing user
	UserID string `json:"userId"`

	// Items are the purchased lines with price-at-purchase snapshots
	Items []OrderItem `json:"items"`

	// TotalPrice is the amount charged at checkout
	TotalPrice float64 `json:"totalPrice"`

	// Currency is the ISO 4217 currency the total was charged in
	Currency string `json:"currency"`

	// Status is the order lifecycle state
	Status OrderStatus `json:"status"`

	// CreatedAt is when the order was persisted
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the order last changed state
	UpdatedAt time.Time `json:"updatedAt"`
}

// Refundable reports whether the order can transition to REFUNDED.
func (o *Order) Refundable() bool {
	return o.Status == OrderStatusCompleted
}
