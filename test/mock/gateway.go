// Package mock provides test doubles for the booking checkout system.
// These mocks are designed for integration testing where we need
// configurable behavior (delays, errors, recorded calls).
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// Charge records a single call to the mock gateway.
type Charge struct {
	Amount   float64
	Currency string
	Token    string
}

// Gateway is a configurable mock implementation of domain.PaymentGateway.
// It supports configurable delays and errors for testing checkout failure
// paths, and records every charge it receives.
type Gateway struct {
	err     error
	delay   time.Duration
	charges []Charge
	mu      sync.Mutex
}

// NewGateway creates a mock gateway that approves every charge.
// Behavior is adjusted with the builder pattern methods.
func NewGateway() *Gateway {
	return &Gateway{}
}

// WithError configures the gateway to reject charges with the given error.
func (g *Gateway) WithError(err error) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
	return g
}

// WithDelay configures the gateway to wait before responding.
// This is useful for testing timeout behavior.
func (g *Gateway) WithDelay(d time.Duration) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
	return g
}

// Approve clears any configured error so subsequent charges succeed.
func (g *Gateway) Approve() *Gateway {
	return g.WithError(nil)
}

// Charge implements domain.PaymentGateway.Charge.
func (g *Gateway) Charge(ctx context.Context, amount float64, currency, token string) error {
	g.mu.Lock()
	g.charges = append(g.charges, Charge{Amount: amount, Currency: currency, Token: token})
	err := g.err
	delay := g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Charges returns a copy of every charge the gateway has received.
func (g *Gateway) Charges() []Charge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Charge, len(g.charges))
	copy(out, g.charges)
	return out
}

// CallCount returns the number of charges attempted.
func (g *Gateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.charges)
}

// Notifier is a recording mock implementation of domain.Notifier.
type Notifier struct {
	err    error
	events []domain.OrderCompletedEvent
	mu     sync.Mutex
}

// NewNotifier creates a mock notifier that accepts every event.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// WithError configures the notifier to fail publishing with the given error.
func (n *Notifier) WithError(err error) *Notifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
	return n
}

// OrderCompleted implements domain.Notifier.OrderCompleted.
func (n *Notifier) OrderCompleted(_ context.Context, event domain.OrderCompletedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

// Events returns a copy of every event the notifier has received.
func (n *Notifier) Events() []domain.OrderCompletedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.OrderCompletedEvent, len(n.events))
	copy(out, n.events)
	return out
}
