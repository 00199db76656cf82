package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

func sampleOrder(id, userID string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:     id,
		UserID: userID,
		Items: []domain.OrderItem{
			{
				ID:          "item-1",
				FlightID:    "FL-001",
				Quantity:    1,
				UnitPrice:   domain.PriceInfo{Amount: 150.00, Currency: "USD"},
				Allocations: []domain.SeatAllocation{{FlightID: "FL-001", HoldID: "hold-1", SeatNumber: "12A"}},
			},
		},
		TotalPrice: 150.00,
		Currency:   "USD",
		Status:     domain.OrderStatusCompleted,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestOrderStore_SaveAndGet(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	order := sampleOrder("order-1", "user-1", time.Now().UTC())

	require.NoError(t, store.Save(ctx, order))

	got, err := store.GetByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.TotalPrice, got.TotalPrice)
	assert.Len(t, got.Items, 1)

	// Stored state must be isolated from the caller's copy.
	got.Items[0].Quantity = 99
	again, err := store.GetByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestOrderStore_Save_Duplicate(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	order := sampleOrder("order-1", "user-1", time.Now().UTC())

	require.NoError(t, store.Save(ctx, order))
	err := store.Save(ctx, order)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestOrderStore_GetByID_NotFound(t *testing.T) {
	store := NewOrderStore()

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderStore_ListByUser(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.Save(ctx, sampleOrder("order-1", "user-1", base.Add(-2*time.Hour))))
	require.NoError(t, store.Save(ctx, sampleOrder("order-2", "user-1", base)))
	require.NoError(t, store.Save(ctx, sampleOrder("order-3", "user-2", base.Add(-time.Hour))))

	orders, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "order-2", orders[0].ID)
	assert.Equal(t, "order-1", orders[1].ID)

	orders, err = store.ListByUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderStore_UpdateStatus(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleOrder("order-1", "user-1", time.Now().UTC())))
	require.NoError(t, store.UpdateStatus(ctx, "order-1", domain.OrderStatusRefunded))

	got, err := store.GetByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, got.Status)

	err = store.UpdateStatus(ctx, "missing", domain.OrderStatusRefunded)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
