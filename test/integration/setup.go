// Package integration provides helpers and integration tests for the booking
// checkout system. Integration tests verify that components work together
// correctly: HTTP handlers, use cases, the inventory ledger, and stores.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/travelbook/booking-checkout-service/internal/adapter/catalog/static"
	httpAdapter "github.com/travelbook/booking-checkout-service/internal/adapter/http"
	"github.com/travelbook/booking-checkout-service/internal/adapter/storage/memory"
	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/timeutil"
	"github.com/travelbook/booking-checkout-service/internal/usecase"
	"github.com/travelbook/booking-checkout-service/test/mock"
	"github.com/travelbook/booking-checkout-service/test/testutil"
)

// TestServer wraps an Echo instance and the full service stack behind it.
// Inventory and orders use the in-memory stores; payment and notifications
// use configurable mocks; time is driven by a mock clock so hold expiry can
// be simulated.
type TestServer struct {
	Echo     *echo.Echo
	Clock    *timeutil.MockClock
	Gateway  *mock.Gateway
	Notifier *mock.Notifier
	Ledger   usecase.InventoryLedger
	Carts    usecase.CartService
	Checkout usecase.CheckoutService
	Orders   domain.OrderStore
}

// DefaultFlights returns the flights every test server is seeded with.
func DefaultFlights() []*domain.Flight {
	return []*domain.Flight{
		testutil.SampleFlight("FL-001", "GA-203", 30, 150.00),
		testutil.SampleFlight("FL-002", "SQ-951", 2, 420.00),
	}
}

// NewTestServer creates a test server seeded with DefaultFlights.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithFlights(t, DefaultFlights()...)
}

// NewTestServerWithFlights creates a test server seeded with the given flights.
func NewTestServerWithFlights(t *testing.T, flights ...*domain.Flight) *TestServer {
	t.Helper()

	catalog, err := static.New(flights)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	clock := timeutil.NewMockClockFromString("2026-09-01T10:00:00Z")
	log := zerolog.Nop()

	inventory := memory.NewInventoryStore()
	orders := memory.NewOrderStore()
	ledger := usecase.NewInventoryLedger(inventory, clock, nil, log)

	for _, flight := range flights {
		if err := ledger.EnsureFlight(context.Background(), flight); err != nil {
			t.Fatalf("Failed to seed inventory for %s: %v", flight.ID, err)
		}
	}

	gateway := mock.NewGateway()
	notifier := mock.NewNotifier()
	carts := usecase.NewCartService(catalog, ledger, clock, log)
	checkout := usecase.NewCheckoutService(carts, ledger, gateway, orders, notifier, clock, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := httpAdapter.NewBookingHandler(carts, checkout, ledger)
	httpAdapter.RegisterRoutes(e, handler)

	return &TestServer{
		Echo:     e,
		Clock:    clock,
		Gateway:  gateway,
		Notifier: notifier,
		Ledger:   ledger,
		Carts:    carts,
		Checkout: checkout,
		Orders:   orders,
	}
}

// Request represents a test HTTP request configuration.
type Request struct {
	Method string
	Path   string
	User   string
	Body   interface{}
}

// Response represents a test HTTP response.
type Response struct {
	Code    int
	Body    []byte
	Headers http.Header
}

// Do executes a test request and returns the response.
func (ts *TestServer) Do(req Request) Response {
	var bodyReader *bytes.Reader
	if req.Body != nil {
		bodyBytes, _ := json.Marshal(req.Body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, bodyReader)
	if req.Body != nil {
		httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if req.User != "" {
		httpReq.Header.Set("X-User-ID", req.User)
	}

	rec := httptest.NewRecorder()
	ts.Echo.ServeHTTP(rec, httpReq)

	return Response{
		Code:    rec.Code,
		Body:    rec.Body.Bytes(),
		Headers: rec.Header(),
	}
}

// AddItem posts a line item to the user's cart.
func (ts *TestServer) AddItem(user string, body interface{}) Response {
	return ts.Do(Request{Method: http.MethodPost, Path: "/api/v1/cart/items", User: user, Body: body})
}

// GetCart fetches the user's cart.
func (ts *TestServer) GetCart(user string) Response {
	return ts.Do(Request{Method: http.MethodGet, Path: "/api/v1/cart", User: user})
}

// CheckoutCart checks out the user's cart with the given payment token.
func (ts *TestServer) CheckoutCart(user, token string) Response {
	return ts.Do(Request{
		Method: http.MethodPost,
		Path:   "/api/v1/checkout",
		User:   user,
		Body:   map[string]string{"paymentToken": token},
	})
}

// Availability fetches a flight's seat availability.
func (ts *TestServer) Availability(flightID string) Response {
	return ts.Do(Request{Method: http.MethodGet, Path: "/api/v1/flights/" + flightID + "/availability"})
}

// ParseCart parses the response body as a cart.
func (r Response) ParseCart() (*httpAdapter.CartDTO, error) {
	var cart httpAdapter.CartDTO
	if err := json.Unmarshal(r.Body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ParseOrder parses the response body as an order.
func (r Response) ParseOrder() (*httpAdapter.OrderDTO, error) {
	var order httpAdapter.OrderDTO
	if err := json.Unmarshal(r.Body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ParseAvailability parses the response body as flight availability.
func (r Response) ParseAvailability() (*httpAdapter.AvailabilityDTO, error) {
	var avail httpAdapter.AvailabilityDTO
	if err := json.Unmarshal(r.Body, &avail); err != nil {
		return nil, err
	}
	return &avail, nil
}

// ParseError parses the response body to extract error information.
func (r Response) ParseError() (map[string]interface{}, error) {
	var errResp map[string]interface{}
	if err := json.Unmarshal(r.Body, &errResp); err != nil {
		return nil, err
	}
	return errResp, nil
}

// AddItemBody builds a minimal add-item request body.
func AddItemBody(flightID string, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"flightId": flightID,
		"quantity": quantity,
	}
}

// AddSeatBody builds an add-item request body for a specific seat.
func AddSeatBody(flightID, seat string) map[string]interface{} {
	return map[string]interface{}{
		"flightId":   flightID,
		"quantity":   1,
		"seatNumber": seat,
	}
}
