package http

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/travelbook/booking-checkout-service/internal/adapter/http/response"
	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/usecase"
)

// userIDHeader carries the caller's identity. Authentication is handled by
// the gateway in front of this service; the header is trusted as-is.
const userIDHeader = "X-User-ID"

// BookingHandler handles HTTP requests for cart, checkout, and order endpoints.
type BookingHandler struct {
	carts    usecase.CartService
	checkout usecase.CheckoutService
	ledger   usecase.InventoryLedger
}

// NewBookingHandler creates a BookingHandler with the given services.
func NewBookingHandler(carts usecase.CartService, checkout usecase.CheckoutService, ledger usecase.InventoryLedger) *BookingHandler {
	return &BookingHandler{
		carts:    carts,
		checkout: checkout,
		ledger:   ledger,
	}
}

// userID extracts the caller's identity from the request headers.
func userID(c echo.Context) string {
	return c.Request().Header.Get(userIDHeader)
}

// AddCartItem handles POST /api/v1/cart/items
//
// @Summary Add a line item to the cart
// @Description Reserves seats on a flight and adds them to the caller's cart
// @Tags cart
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param request body AddCartItemRequest true "Line item to add"
// @Success 201 {object} CartDTO
// @Failure 400 {object} response.ErrorDetail "Validation error"
// @Failure 404 {object} response.ErrorDetail "Flight not found"
// @Failure 409 {object} response.ConflictDetail "Seat taken or flight full"
// @Router /api/v1/cart/items [post]
func (h *BookingHandler) AddCartItem(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return response.InvalidRequestBody(c)
	}
	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}

	snap, err := h.carts.AddItem(c.Request().Context(), uid, ToAddItemInput(&req))
	if err != nil {
		return h.handleError(c, err)
	}
	return response.Created(c, ToCartDTO(snap))
}

// GetCart handles GET /api/v1/cart
//
// @Summary Get the cart
// @Description Returns the caller's cart with derived totals
// @Tags cart
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Success 200 {object} CartDTO
// @Router /api/v1/cart [get]
func (h *BookingHandler) GetCart(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	snap, err := h.carts.Snapshot(c.Request().Context(), uid)
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToCartDTO(snap))
}

// UpdateCartItem handles PUT /api/v1/cart/items/:id
//
// @Summary Change a line item's quantity
// @Description Adjusts the seat holds backing the line item up or down
// @Tags cart
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param id path string true "Line item ID"
// @Param request body UpdateCartItemRequest true "New quantity"
// @Success 200 {object} CartDTO
// @Failure 400 {object} response.ErrorDetail "Validation error"
// @Failure 404 {object} response.ErrorDetail "Line item not found"
// @Failure 409 {object} response.ConflictDetail "Flight full"
// @Router /api/v1/cart/items/{id} [put]
func (h *BookingHandler) UpdateCartItem(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return response.InvalidRequestBody(c)
	}
	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}

	snap, err := h.carts.UpdateQuantity(c.Request().Context(), uid, c.Param("id"), req.Quantity)
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToCartDTO(snap))
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:id
//
// @Summary Remove a line item
// @Description Releases the line item's seat holds and removes it from the cart
// @Tags cart
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param id path string true "Line item ID"
// @Success 200 {object} CartDTO
// @Failure 404 {object} response.ErrorDetail "Line item not found"
// @Router /api/v1/cart/items/{id} [delete]
func (h *BookingHandler) RemoveCartItem(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	snap, err := h.carts.RemoveItem(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToCartDTO(snap))
}

// ClearCart handles DELETE /api/v1/cart
//
// @Summary Abandon the cart
// @Description Releases every seat hold in the cart and discards it
// @Tags cart
// @Param X-User-ID header string true "Caller identity"
// @Success 204 "Cart cleared"
// @Router /api/v1/cart [delete]
func (h *BookingHandler) ClearCart(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	if err := h.carts.Abandon(c.Request().Context(), uid); err != nil {
		return h.handleError(c, err)
	}
	return response.NoContent(c)
}

// Checkout handles POST /api/v1/checkout
//
// @Summary Check out the cart
// @Description Confirms the cart's seat holds, charges the payment token, and creates the order
// @Tags checkout
// @Accept json
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param request body CheckoutRequest true "Payment details"
// @Success 201 {object} OrderDTO
// @Failure 400 {object} response.ErrorDetail "Validation error or empty cart"
// @Failure 402 {object} response.ErrorDetail "Payment declined"
// @Failure 409 {object} response.ConflictDetail "Stale holds; cart left intact"
// @Failure 503 {object} response.ErrorDetail "Payment gateway unavailable"
// @Router /api/v1/checkout [post]
func (h *BookingHandler) Checkout(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return response.InvalidRequestBody(c)
	}
	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}

	order, err := h.checkout.Checkout(c.Request().Context(), uid, req.PaymentToken)
	if err != nil {
		return h.handleError(c, err)
	}
	return response.Created(c, ToOrderDTO(order))
}

// ListOrders handles GET /api/v1/orders
//
// @Summary List the caller's orders
// @Tags orders
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Success 200 {array} OrderDTO
// @Router /api/v1/orders [get]
func (h *BookingHandler) ListOrders(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	orders, err := h.checkout.ListOrders(c.Request().Context(), uid)
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToOrderListDTO(orders))
}

// GetOrder handles GET /api/v1/orders/:id
//
// @Summary Get one of the caller's orders
// @Tags orders
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param id path string true "Order ID"
// @Success 200 {object} OrderDTO
// @Failure 404 {object} response.ErrorDetail "Order not found"
// @Router /api/v1/orders/{id} [get]
func (h *BookingHandler) GetOrder(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	order, err := h.checkout.GetOrder(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToOrderDTO(order))
}

// RefundOrder handles POST /api/v1/orders/:id/refund
//
// @Summary Refund a completed order
// @Description Releases the order's seat allocations and marks it refunded
// @Tags orders
// @Produce json
// @Param X-User-ID header string true "Caller identity"
// @Param id path string true "Order ID"
// @Success 200 {object} OrderDTO
// @Failure 404 {object} response.ErrorDetail "Order not found"
// @Failure 409 {object} response.ConflictDetail "Order not refundable"
// @Router /api/v1/orders/{id}/refund [post]
func (h *BookingHandler) RefundOrder(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return response.Unauthorized(c)
	}

	order, err := h.checkout.Refund(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToOrderDTO(order))
}

// GetAvailability handles GET /api/v1/flights/:id/availability
//
// @Summary Get a flight's seat availability
// @Tags flights
// @Produce json
// @Param id path string true "Flight ID"
// @Success 200 {object} AvailabilityDTO
// @Failure 404 {object} response.ErrorDetail "Flight not found"
// @Router /api/v1/flights/{id}/availability [get]
func (h *BookingHandler) GetAvailability(c echo.Context) error {
	avail, err := h.ledger.Availability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, ToAvailabilityDTO(avail))
}

// handleValidationError handles validation errors and returns a 400 response.
func (h *BookingHandler) handleValidationError(c echo.Context, err error) error {
	var validationErrs *ValidationErrors
	if errors.As(err, &validationErrs) {
		return response.ValidationError(c, validationErrs.ToMap())
	}

	// Fallback for non-structured validation errors
	return response.ValidationErrorWithMessage(c, err.Error())
}

// handleError maps domain errors to appropriate HTTP responses.
func (h *BookingHandler) handleError(c echo.Context, err error) error {
	var conflict *domain.InventoryConflictError
	if errors.As(err, &conflict) {
		return response.Conflict(c, conflict.Error(), ToConflictItemDTOs(conflict.Items))
	}

	switch {
	case errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrLineItemNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, domain.ErrSeatAlreadyTaken),
		errors.Is(err, domain.ErrOutOfCapacity),
		errors.Is(err, domain.ErrOrderNotRefundable),
		errors.Is(err, domain.ErrInventoryConflict):
		return response.Conflict(c, err.Error(), nil)

	case errors.Is(err, domain.ErrPaymentDeclined):
		return response.PaymentRequired(c, err.Error())

	case errors.Is(err, domain.ErrPaymentUnavailable):
		return response.ServiceUnavailableWithMessage(c, err.Error())

	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidRequest):
		return response.ValidationErrorWithMessage(c, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return response.GatewayTimeout(c)

	case errors.Is(err, context.Canceled):
		return response.RequestCancelled(c)

	default:
		return response.InternalServerError(c)
	}
}

// Health handles GET /health
// Simple health check endpoint.
func (h *BookingHandler) Health(c echo.Context) error {
	return response.Health(c)
}
