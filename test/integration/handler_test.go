package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// TestBookingFlow_EndToEnd walks the full happy path through the HTTP API:
// build a cart, check out, and read back the resulting order.
func TestBookingFlow_EndToEnd(t *testing.T) {
	ts := NewTestServer(t)

	// Add a specific seat and two deferred seats on the same flight
	resp := ts.AddItem("user-1", AddSeatBody("FL-001", "12A"))
	require.Equal(t, http.StatusCreated, resp.Code, "add seat: %s", resp.Body)

	resp = ts.AddItem("user-1", AddItemBody("FL-001", 2))
	require.Equal(t, http.StatusCreated, resp.Code, "add deferred: %s", resp.Body)

	cart, err := resp.ParseCart()
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.TotalQuantity)
	assert.Equal(t, 450.00, cart.TotalPrice)

	// Holds are reflected in availability before checkout
	avail, err := ts.Availability("FL-001").ParseAvailability()
	require.NoError(t, err)
	assert.Equal(t, 3, avail.Held)
	assert.Equal(t, 27, avail.Available)

	// Checkout completes the order
	resp = ts.CheckoutCart("user-1", "tok-visa")
	require.Equal(t, http.StatusCreated, resp.Code, "checkout: %s", resp.Body)

	order, err := resp.ParseOrder()
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", order.Status)
	assert.Equal(t, 450.00, order.TotalPrice)
	assert.Len(t, order.Items, 2)

	// The gateway was charged exactly once for the cart total
	charges := ts.Gateway.Charges()
	require.Len(t, charges, 1)
	assert.Equal(t, 450.00, charges[0].Amount)
	assert.Equal(t, "tok-visa", charges[0].Token)

	// A completion event was published
	events := ts.Notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, order.ID, events[0].OrderID)

	// Holds became confirmed seats
	avail, err = ts.Availability("FL-001").ParseAvailability()
	require.NoError(t, err)
	assert.Equal(t, 3, avail.Confirmed)
	assert.Equal(t, 0, avail.Held)
	assert.Equal(t, 27, avail.Available)

	// The cart is empty and the order is queryable
	cart, err = ts.GetCart("user-1").ParseCart()
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	resp = ts.Do(Request{Method: http.MethodGet, Path: "/api/v1/orders/" + order.ID, User: "user-1"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

// TestBookingFlow_SeatConflictAcrossUsers verifies a seat held by one user
// cannot be added by another.
func TestBookingFlow_SeatConflictAcrossUsers(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.AddItem("user-1", AddSeatBody("FL-001", "12A"))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.AddItem("user-2", AddSeatBody("FL-001", "12A"))
	assert.Equal(t, http.StatusConflict, resp.Code)

	errResp, err := resp.ParseError()
	require.NoError(t, err)
	assert.Equal(t, "inventory_conflict", errResp["code"])
}

// TestBookingFlow_PaymentDeclinedLeavesCartIntact verifies a declined charge
// keeps the cart and its holds so the user can retry with another card.
func TestBookingFlow_PaymentDeclinedLeavesCartIntact(t *testing.T) {
	ts := NewTestServer(t)
	ts.Gateway.WithError(domain.ErrPaymentDeclined)

	resp := ts.AddItem("user-1", AddItemBody("FL-001", 2))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.CheckoutCart("user-1", "tok-bad-card")
	assert.Equal(t, http.StatusPaymentRequired, resp.Code)

	// Cart intact, holds still counted
	cart, err := ts.GetCart("user-1").ParseCart()
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	avail, err := ts.Availability("FL-001").ParseAvailability()
	require.NoError(t, err)
	assert.Equal(t, 2, avail.Held)
	assert.Equal(t, 0, avail.Confirmed)

	// Retrying after the gateway recovers succeeds
	ts.Gateway.Approve()
	resp = ts.CheckoutCart("user-1", "tok-visa")
	assert.Equal(t, http.StatusCreated, resp.Code, "retry checkout: %s", resp.Body)
}

// TestBookingFlow_ExpiredHoldBlocksCheckout verifies checkout reports the
// stale lines and leaves the cart for the user to fix.
func TestBookingFlow_ExpiredHoldBlocksCheckout(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.AddItem("user-1", AddItemBody("FL-001", 1))
	require.Equal(t, http.StatusCreated, resp.Code)

	// Let the hold lapse
	ts.Clock.AdvanceMinutes(10)

	resp = ts.CheckoutCart("user-1", "tok-visa")
	assert.Equal(t, http.StatusConflict, resp.Code)

	errResp, err := resp.ParseError()
	require.NoError(t, err)
	assert.Equal(t, "inventory_conflict", errResp["code"])

	items, ok := errResp["items"].([]interface{})
	require.True(t, ok, "conflict response should carry items: %s", resp.Body)
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "hold_expired", item["reason"])

	// Nothing was charged and the cart still shows the line
	assert.Equal(t, 0, ts.Gateway.CallCount())
	cart, err := ts.GetCart("user-1").ParseCart()
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

// TestBookingFlow_RefundRestoresAvailability verifies a refund releases the
// order's confirmed seats back to the pool.
func TestBookingFlow_RefundRestoresAvailability(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.AddItem("user-1", AddItemBody("FL-001", 3))
	require.Equal(t, http.StatusCreated, resp.Code)

	order, err := ts.CheckoutCart("user-1", "tok-visa").ParseOrder()
	require.NoError(t, err)

	resp = ts.Do(Request{Method: http.MethodPost, Path: "/api/v1/orders/" + order.ID + "/refund", User: "user-1"})
	require.Equal(t, http.StatusOK, resp.Code, "refund: %s", resp.Body)

	refunded, err := resp.ParseOrder()
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", refunded.Status)

	avail, err := ts.Availability("FL-001").ParseAvailability()
	require.NoError(t, err)
	assert.Equal(t, 0, avail.Confirmed)
	assert.Equal(t, 30, avail.Available)

	// Refunding twice is rejected
	resp = ts.Do(Request{Method: http.MethodPost, Path: "/api/v1/orders/" + order.ID + "/refund", User: "user-1"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

// TestBookingFlow_RequiresUserIdentity verifies cart and order endpoints
// reject requests without the identity header.
func TestBookingFlow_RequiresUserIdentity(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.Do(Request{Method: http.MethodGet, Path: "/api/v1/cart"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.Do(Request{Method: http.MethodPost, Path: "/api/v1/checkout", Body: map[string]string{"paymentToken": "tok"}})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Availability is public
	resp = ts.Availability("FL-001")
	assert.Equal(t, http.StatusOK, resp.Code)
}

// TestBookingFlow_UnknownFlight verifies adding an uncataloged flight fails
// with 404 and no inventory state is created.
func TestBookingFlow_UnknownFlight(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.AddItem("user-1", AddItemBody("FL-999", 1))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.Availability("FL-999")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// TestBookingFlow_HealthCheck verifies the health endpoint responds without auth.
func TestBookingFlow_HealthCheck(t *testing.T) {
	ts := NewTestServer(t)

	resp := ts.Do(Request{Method: http.MethodGet, Path: "/health"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, string(resp.Body), "ok")
}
