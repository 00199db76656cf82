package http

// CartDTO is the data transfer object for cart responses.
// It matches the expected API output format with snake_case fields.
type CartDTO struct {
	UserID        string        `json:"user_id"`
	Items         []CartItemDTO `json:"items"`
	TotalPrice    float64       `json:"total_price"`
	TotalQuantity int           `json:"total_quantity"`
	Currency      string        `json:"currency,omitempty"`
}

// CartItemDTO is the data transfer object for a cart line item.
type CartItemDTO struct {
	ID            string   `json:"id"`
	FlightID      string   `json:"flight_id"`
	FlightNumber  string   `json:"flight_number,omitempty"`
	Quantity      int      `json:"quantity"`
	SeatSelection string   `json:"seat_selection"`
	SeatNumber    string   `json:"seat_number,omitempty"`
	BaggageType   string   `json:"baggage_type,omitempty"`
	UnitPrice     PriceDTO `json:"unit_price"`
	Subtotal      float64  `json:"subtotal"`
	AddedAt       string   `json:"added_at"`
}

// PriceDTO represents price information.
type PriceDTO struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// OrderDTO is the data transfer object for order responses.
type OrderDTO struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Items      []OrderItemDTO `json:"items"`
	TotalPrice float64        `json:"total_price"`
	Currency   string         `json:"currency"`
	Status     string         `json:"status"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// OrderItemDTO is the data transfer object for a purchased line item.
type OrderItemDTO struct {
	ID           string   `json:"id"`
	FlightID     string   `json:"flight_id"`
	FlightNumber string   `json:"flight_number,omitempty"`
	Quantity     int      `json:"quantity"`
	UnitPrice    PriceDTO `json:"unit_price"`
	BaggageType  string   `json:"baggage_type,omitempty"`
	Seats        []string `json:"seats"`
}

// AvailabilityDTO is the data transfer object for flight availability.
type AvailabilityDTO struct {
	FlightID   string `json:"flight_id"`
	TotalSeats int    `json:"total_seats"`
	Confirmed  int    `json:"confirmed"`
	Held       int    `json:"held"`
	Available  int    `json:"available"`
}

// ConflictItemDTO identifies a cart line item that blocked a checkout.
type ConflictItemDTO struct {
	LineItemID string `json:"line_item_id"`
	FlightID   string `json:"flight_id"`
	Reason     string `json:"reason"`
}
