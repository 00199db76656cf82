package http

import (
	"time"

	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/usecase"
)

// ToCartDTO converts a cart snapshot to its API representation.
func ToCartDTO(snap domain.CartSnapshot) *CartDTO {
	items := make([]CartItemDTO, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = CartItemDTO{
			ID:            item.ID,
			FlightID:      item.FlightID,
			FlightNumber:  item.FlightNumber,
			Quantity:      item.Quantity,
			SeatSelection: string(item.SeatRequest.Kind),
			SeatNumber:    item.SeatRequest.SeatNumber,
			BaggageType:   string(item.BaggageType),
			UnitPrice: PriceDTO{
				Amount:   item.UnitPrice.Amount,
				Currency: item.UnitPrice.Currency,
			},
			Subtotal: item.Subtotal(),
			AddedAt:  item.AddedAt.UTC().Format(time.RFC3339),
		}
	}

	return &CartDTO{
		UserID:        snap.UserID,
		Items:         items,
		TotalPrice:    snap.TotalPrice,
		TotalQuantity: snap.TotalQuantity,
		Currency:      snap.Currency,
	}
}

// ToOrderDTO converts an order to its API representation.
func ToOrderDTO(order *domain.Order) *OrderDTO {
	items := make([]OrderItemDTO, len(order.Items))
	for i, item := range order.Items {
		seats := make([]string, 0, len(item.Allocations))
		for _, alloc := range item.Allocations {
			if alloc.SeatNumber != "" {
				seats = append(seats, alloc.SeatNumber)
			}
		}
		items[i] = OrderItemDTO{
			ID:           item.ID,
			FlightID:     item.FlightID,
			FlightNumber: item.FlightNumber,
			Quantity:     item.Quantity,
			UnitPrice: PriceDTO{
				Amount:   item.UnitPrice.Amount,
				Currency: item.UnitPrice.Currency,
			},
			BaggageType: string(item.BaggageType),
			Seats:       seats,
		}
	}

	return &OrderDTO{
		ID:         order.ID,
		UserID:     order.UserID,
		Items:      items,
		TotalPrice: order.TotalPrice,
		Currency:   order.Currency,
		Status:     string(order.Status),
		CreatedAt:  order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  order.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToOrderListDTO converts a list of orders.
func ToOrderListDTO(orders []*domain.Order) []*OrderDTO {
	result := make([]*OrderDTO, len(orders))
	for i, order := range orders {
		result[i] = ToOrderDTO(order)
	}
	return result
}

// ToAvailabilityDTO converts a flight availability read model.
func ToAvailabilityDTO(avail usecase.FlightAvailability) *AvailabilityDTO {
	return &AvailabilityDTO{
		FlightID:   avail.FlightID,
		TotalSeats: avail.TotalSeats,
		Confirmed:  avail.Confirmed,
		Held:       avail.Held,
		Available:  avail.Available,
	}
}

// ToAddItemInput converts an add-item request to the use case input.
func ToAddItemInput(req *AddCartItemRequest) usecase.AddItemInput {
	return usecase.AddItemInput{
		FlightID:           req.FlightID,
		Quantity:           req.Quantity,
		SeatNumber:         req.SeatNumber,
		DeferSeatSelection: req.DeferSeatSelection,
		AllocateRandomSeat: req.AllocateRandomSeat,
		BaggageType:        domain.BaggageType(req.BaggageType),
	}
}

// ToConflictItemDTOs converts inventory conflict details for the API.
func ToConflictItemDTOs(items []domain.ConflictItem) []ConflictItemDTO {
	result := make([]ConflictItemDTO, len(items))
	for i, item := range items {
		result[i] = ConflictItemDTO{
			LineItemID: item.LineItemID,
			FlightID:   item.FlightID,
			Reason:     item.Reason,
		}
	}
	return result
}
