package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// OrderStore is an in-memory implementation of domain.OrderStore. Orders are
// stored by ID and handed out as copies so callers cannot mutate stored state.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewOrderStore creates an empty in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
	}
}

// Save persists a new order.
func (s *OrderStore) Save(_ context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("%w: order ID is required", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return fmt.Errorf("%w: order %s already exists", domain.ErrInvalidRequest, order.ID)
	}
	s.orders[order.ID] = copyOrder(order)
	return nil
}

// GetByID returns the order with the given ID.
func (s *OrderStore) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrOrderNotFound, orderID)
	}
	return copyOrder(order), nil
}

// ListByUser returns the user's orders, newest first.
func (s *OrderStore) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			result = append(result, copyOrder(order))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateStatus transitions an existing order to the given status.
func (s *OrderStore) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrOrderNotFound, orderID)
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func copyOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		clone.Items[i] = item
		clone.Items[i].Allocations = append([]domain.SeatAllocation(nil), item.Allocations...)
	}
	return &clone
}
