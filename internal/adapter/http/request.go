// Package http provides the HTTP handler layer for the booking checkout API.
// It handles request parsing, validation, and response formatting.
package http

import (
	"regexp"
	"strings"
)

// AddCartItemRequest represents the request body for adding a cart line item.
type AddCartItemRequest struct {
	// FlightID is the catalog identifier of the flight to book
	FlightID string `json:"flightId"`

	// Quantity is the number of seats requested (1-9)
	Quantity int `json:"quantity"`

	// SeatNumber requests a specific seat (e.g., "12A"); requires quantity 1
	SeatNumber string `json:"seatNumber,omitempty"`

	// DeferSeatSelection reserves capacity without binding seat numbers
	DeferSeatSelection bool `json:"deferSeatSelection,omitempty"`

	// AllocateRandomSeat lets the service pick free seats
	AllocateRandomSeat bool `json:"allocateRandomSeat,omitempty"`

	// BaggageType is the baggage selection: cabin_only or checked (optional)
	BaggageType string `json:"baggageType,omitempty"`
}

// UpdateCartItemRequest represents the request body for changing a line
// item's quantity.
type UpdateCartItemRequest struct {
	// Quantity is the new number of seats for the line item (1-9)
	Quantity int `json:"quantity"`
}

// CheckoutRequest represents the request body for checking out the cart.
type CheckoutRequest struct {
	// PaymentToken is the opaque payment method token to charge
	PaymentToken string `json:"paymentToken"`
}

// Validation regex patterns.
var seatNumberPattern = regexp.MustCompile(`^[1-9]\d{0,2}[A-F]$`)

// Valid baggage selections.
var validBaggage = map[string]bool{
	"cabin_only": true,
	"checked":    true,
	"":           true, // Empty is valid (defaults to cabin_only)
}

// ValidationError represents a field-level validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors holds multiple validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}
	return v.Errors[0].Message
}

// Add adds a validation error.
func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// ToMap converts validation errors to a map for API response.
func (v *ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string, len(v.Errors))
	for _, e := range v.Errors {
		result[e.Field] = e.Message
	}
	return result
}

// Validate validates the add-item request and returns any validation errors.
func (r *AddCartItemRequest) Validate() error {
	errs := &ValidationErrors{}

	r.validateFlightID(errs)
	r.validateQuantity(errs)
	r.validateSeatSelection(errs)
	r.validateBaggage(errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func (r *AddCartItemRequest) validateFlightID(errs *ValidationErrors) {
	if strings.TrimSpace(r.FlightID) == "" {
		errs.Add("flightId", "flightId is required")
	}
}

func (r *AddCartItemRequest) validateQuantity(errs *ValidationErrors) {
	if r.Quantity < 1 {
		errs.Add("quantity", "quantity must be at least 1")
		return
	}
	if r.Quantity > 9 {
		errs.Add("quantity", "quantity cannot exceed 9")
	}
}

func (r *AddCartItemRequest) validateSeatSelection(errs *ValidationErrors) {
	modes := 0
	if r.SeatNumber != "" {
		modes++
	}
	if r.DeferSeatSelection {
		modes++
	}
	if r.AllocateRandomSeat {
		modes++
	}
	if modes > 1 {
		errs.Add("seatNumber", "choose one of seatNumber, allocateRandomSeat, or deferSeatSelection")
		return
	}

	if r.SeatNumber == "" {
		return
	}

	seat := strings.ToUpper(r.SeatNumber)
	if !seatNumberPattern.MatchString(seat) {
		errs.Add("seatNumber", "seatNumber must be a row number followed by a seat letter A-F (e.g., 12A)")
		return
	}
	r.SeatNumber = seat // Normalize to uppercase

	if r.Quantity > 1 {
		errs.Add("quantity", "quantity must be 1 when a specific seat is requested")
	}
}

func (r *AddCartItemRequest) validateBaggage(errs *ValidationErrors) {
	if !validBaggage[strings.ToLower(r.BaggageType)] {
		errs.Add("baggageType", "baggageType must be one of: cabin_only, checked")
		return
	}
	r.BaggageType = strings.ToLower(r.BaggageType)
}

// Validate validates the update-quantity request.
func (r *UpdateCartItemRequest) Validate() error {
	errs := &ValidationErrors{}

	if r.Quantity < 1 {
		errs.Add("quantity", "quantity must be at least 1")
	} else if r.Quantity > 9 {
		errs.Add("quantity", "quantity cannot exceed 9")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Validate validates the checkout request.
func (r *CheckoutRequest) Validate() error {
	errs := &ValidationErrors{}

	if strings.TrimSpace(r.PaymentToken) == "" {
		errs.Add("paymentToken", "paymentToken is required")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
