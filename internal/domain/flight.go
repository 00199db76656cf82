package domain

import "time"

// Flight represents a bookable flight as described by the flight catalog.
// It carries the live price and the physical capacity the inventory ledger
// tracks reservations against.
type Flight struct {
	// ID is the catalog's unique identifier for this flight
	ID string `json:"id"`

	// FlightNumber is the airline's flight number (e.g., "GA-123")
	FlightNumber string `json:"flightNumber"`

	// Airline contains information about the operating airline
	Airline AirlineInfo `json:"airline"`

	// Departure contains departure airport and time information
	Departure FlightPoint `json:"departure"`

	// Arrival contains arrival airport and time information
	Arrival FlightPoint `json:"arrival"`

	// Price is the live price per seat; carts snapshot it at add-time
	Price PriceInfo `json:"price"`

	// TotalSeats is the physical seat capacity of the aircraft
	TotalSeats int `json:"totalSeats"`

	// Class is the travel class (economy, business, first)
	Class string `json:"class"`
}

// AirlineInfo contains information about an airline.
type AirlineInfo struct {
	// Code is the IATA airline code (e.g., "GA" for Garuda Indonesia)
	Code string `json:"code"`

	// Name is the full airline name (e.g., "Garuda Indonesia")
	Name string `json:"name"`
}

// FlightPoint represents a point in a flight journey (departure or arrival).
type FlightPoint struct {
	// AirportCode is the IATA airport code (e.g., "CGK")
	AirportCode string `json:"airportCode"`

	// Terminal is the terminal identifier (e.g., "3")
	Terminal string `json:"terminal,omitempty"`

	// Gate is the gate identifier (e.g., "D7")
	Gate string `json:"gate,omitempty"`

	// DateTime is the scheduled departure or arrival time
	DateTime time.Time `json:"dateTime"`
}

// PriceInfo contains pricing information for a single seat.
type PriceInfo struct {
	// Amount is the numeric price value
	Amount float64 `json:"amount"`

	// Currency is the ISO 4217 currency code (e.g., "IDR", "USD")
	Currency string `json:"currency"`
}
