package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=domain

// FlightCatalog looks up bookable flights. It is an external collaborator:
// search, aggregation, and pricing logic live behind this interface.
type FlightCatalog interface {
	// GetFlight returns the flight with the given ID.
	// Returns ErrFlightNotFound when the flight does not exist.
	GetFlight(ctx context.Context, flightID string) (*Flight, error)
}

// PaymentGateway charges the user at checkout. Implementations cross a trust
// boundary and cannot participate in local transactions; the checkout
// orchestrator compensates inventory explicitly around this call.
type PaymentGateway interface {
	// Charge attempts to collect the given amount using the payment method token.
	// Returns ErrPaymentDeclined when the charge is rejected and
	// ErrPaymentUnavailable when the gateway cannot be reached.
	Charge(ctx context.Context, amount float64, currency, token string) error
}

// OrderStore durably persists orders. Orders are written only after payment
// succeeds and are queryable per user.
type OrderStore interface {
	// Save persists a new order with its items.
	Save(ctx context.Context, order *Order) error

	// GetByID returns the order with the given ID.
	// Returns ErrOrderNotFound when absent.
	GetByID(ctx context.Context, orderID string) (*Order, error)

	// ListByUser returns all orders owned by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)

	// UpdateStatus transitions an existing order to the given status.
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}

// OrderCompletedEvent is the payload published when a checkout completes.
type OrderCompletedEvent struct {
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	TotalPrice  float64   `json:"totalPrice"`
	Currency    string    `json:"currency"`
	SeatNumbers []string  `json:"seatNumbers"`
	CompletedAt time.Time `json:"completedAt"`
}

// Notifier delivers fire-and-forget confirmations for completed checkouts.
// A notification failure never rolls back a completed order.
type Notifier interface {
	// OrderCompleted publishes a confirmation event for the order.
	OrderCompleted(ctx context.Context, event OrderCompletedEvent) error
}

// InventoryStore is the shared mutable resource behind the inventory ledger.
// Implementations must serialize all capacity-changing operations per flight:
// the in-memory store uses a per-flight mutex, the Redis store an optimistic
// transaction retried on contention.
type InventoryStore interface {
	// Ensure creates the flight's inventory record if it does not exist yet.
	Ensure(ctx context.Context, flightID string, totalSeats int) error

	// Update runs fn against the flight's inventory under per-flight
	// serialization. Mutations made by fn are persisted atomically iff fn
	// returns nil. Returns ErrFlightNotFound for unknown flights.
	Update(ctx context.Context, flightID string, fn func(inv *FlightInventory) error) error

	// View runs fn against a copy of the flight's inventory. Mutations made
	// by fn are discarded. Returns ErrFlightNotFound for unknown flights.
	View(ctx context.Context, flightID string, fn func(inv *FlightInventory) error) error

	// FlightIDs lists every flight with inventory state, for sweeping.
	FlightIDs(ctx context.Context) ([]string, error)
}
