package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// cartFixture wires a cart service against a real in-memory ledger and a
// mocked flight catalog.
type cartFixture struct {
	carts   CartService
	ledger  InventoryLedger
	catalog *domain.MockFlightCatalog
}

func newCartFixture(t *testing.T, flights ...*domain.Flight) *cartFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	catalog := domain.NewMockFlightCatalog(ctrl)

	ledger, clock := newTestLedger(t, flights...)
	carts := NewCartService(catalog, ledger, clock, zerolog.Nop())

	return &cartFixture{carts: carts, ledger: ledger, catalog: catalog}
}

func (f *cartFixture) expectFlight(flight *domain.Flight) {
	f.catalog.EXPECT().GetFlight(gomock.Any(), flight.ID).Return(flight, nil).AnyTimes()
}

func TestCartService_AddItem(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{
		FlightID:    "FL-001",
		Quantity:    3,
		BaggageType: domain.BaggageChecked,
	})
	require.NoError(t, err)

	require.Len(t, snap.Items, 1)
	item := snap.Items[0]
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "GA-203", item.FlightNumber)
	assert.Len(t, item.HoldIDs, 3)
	assert.Equal(t, 150.00, item.UnitPrice.Amount)
	assert.Equal(t, 450.00, snap.TotalPrice)
	assert.Equal(t, 3, snap.TotalQuantity)
	assert.Equal(t, "USD", snap.Currency)

	// Three holds consume three units of capacity.
	avail, err := f.ledger.Availability(ctx, "FL-001")
	require.NoError(t, err)
	assert.Equal(t, 27, avail.Available)
}

func TestCartService_AddItem_ExplicitSeat(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{
		FlightID:   "FL-001",
		Quantity:   1,
		SeatNumber: "12A",
	})
	require.NoError(t, err)
	assert.Equal(t, "12A", snap.Items[0].SeatRequest.SeatNumber)

	// The same seat is gone for everyone else.
	_, err = f.carts.AddItem(ctx, "user-2", AddItemInput{
		FlightID:   "FL-001",
		Quantity:   1,
		SeatNumber: "12A",
	})
	assert.ErrorIs(t, err, domain.ErrSeatAlreadyTaken)
}

func TestCartService_AddItem_Validation(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   AddItemInput
		wantErr error
	}{
		{
			name:    "zero quantity",
			input:   AddItemInput{FlightID: "FL-001", Quantity: 0},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			input:   AddItemInput{FlightID: "FL-001", Quantity: -2},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "explicit seat with quantity above one",
			input:   AddItemInput{FlightID: "FL-001", Quantity: 2, SeatNumber: "12A"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "conflicting selection modes",
			input:   AddItemInput{FlightID: "FL-001", Quantity: 1, SeatNumber: "12A", AllocateRandomSeat: true},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "unknown baggage type",
			input:   AddItemInput{FlightID: "FL-001", Quantity: 1, BaggageType: "oversize"},
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.carts.AddItem(ctx, "user-1", tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCartService_AddItem_InsufficientCapacity(t *testing.T) {
	flight := testFlight("FL-001", 2)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	// Requesting three units on a two-seat flight fails atomically:
	// no partial holds survive.
	_, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 3})
	require.ErrorIs(t, err, domain.ErrOutOfCapacity)

	avail, err := f.ledger.Availability(ctx, "FL-001")
	require.NoError(t, err)
	assert.Equal(t, 2, avail.Available)
	assert.Equal(t, 0, avail.Held)

	snap, err := f.carts.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestCartService_RemoveItem(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 2})
	require.NoError(t, err)
	lineID := snap.Items[0].ID

	snap, err = f.carts.RemoveItem(ctx, "user-1", lineID)
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0.0, snap.TotalPrice)

	// Holds come back to the pool immediately.
	avail, err := f.ledger.Availability(ctx, "FL-001")
	require.NoError(t, err)
	assert.Equal(t, 30, avail.Available)

	_, err = f.carts.RemoveItem(ctx, "user-1", lineID)
	assert.ErrorIs(t, err, domain.ErrLineItemNotFound)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	flight := testFlight("FL-001", 5)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 2})
	require.NoError(t, err)
	lineID := snap.Items[0].ID

	t.Run("grow", func(t *testing.T) {
		snap, err := f.carts.UpdateQuantity(ctx, "user-1", lineID, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, snap.Items[0].Quantity)
		assert.Len(t, snap.Items[0].HoldIDs, 4)

		avail, err := f.ledger.Availability(ctx, "FL-001")
		require.NoError(t, err)
		assert.Equal(t, 1, avail.Available)
	})

	t.Run("grow beyond capacity leaves cart unchanged", func(t *testing.T) {
		_, err := f.carts.UpdateQuantity(ctx, "user-1", lineID, 6)
		require.ErrorIs(t, err, domain.ErrOutOfCapacity)

		snap, err := f.carts.Snapshot(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 4, snap.Items[0].Quantity)

		avail, err := f.ledger.Availability(ctx, "FL-001")
		require.NoError(t, err)
		assert.Equal(t, 1, avail.Available)
	})

	t.Run("shrink releases holds", func(t *testing.T) {
		snap, err := f.carts.UpdateQuantity(ctx, "user-1", lineID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Items[0].Quantity)
		assert.Len(t, snap.Items[0].HoldIDs, 1)

		avail, err := f.ledger.Availability(ctx, "FL-001")
		require.NoError(t, err)
		assert.Equal(t, 4, avail.Available)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := f.carts.UpdateQuantity(ctx, "user-1", lineID, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("unknown line", func(t *testing.T) {
		_, err := f.carts.UpdateQuantity(ctx, "user-1", "no-such-line", 2)
		assert.ErrorIs(t, err, domain.ErrLineItemNotFound)
	})
}

func TestCartService_UpdateQuantity_ExplicitSeatFixed(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 1, SeatNumber: "12A"})
	require.NoError(t, err)

	_, err = f.carts.UpdateQuantity(ctx, "user-1", snap.Items[0].ID, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCartService_Snapshot_IsCopy(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 1})
	require.NoError(t, err)

	snap.Items[0].Quantity = 42

	again, err := f.carts.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

// A snapshot's hold IDs must not share backing storage with the live cart,
// or a quantity update that shrinks and regrows the line would rewrite the
// holds a concurrent checkout is iterating.
func TestCartService_Snapshot_HoldIDsDetached(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 3})
	require.NoError(t, err)
	lineID := snap.Items[0].ID
	original := append([]string(nil), snap.Items[0].HoldIDs...)

	_, err = f.carts.UpdateQuantity(ctx, "user-1", lineID, 1)
	require.NoError(t, err)
	_, err = f.carts.UpdateQuantity(ctx, "user-1", lineID, 3)
	require.NoError(t, err)

	assert.Equal(t, original, snap.Items[0].HoldIDs)
}

// Reset removes only the named lines, keeping any others and their holds.
func TestCartService_Reset_KeepsUnnamedLines(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	first, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 2})
	require.NoError(t, err)
	second, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)

	f.carts.Reset("user-1", []string{first.Items[0].ID})

	snap, err := f.carts.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, second.Items[1].ID, snap.Items[0].ID)

	// The kept line's holds are still live.
	for _, holdID := range snap.Items[0].HoldIDs {
		active, err := f.ledger.HoldActive(ctx, "FL-001", holdID)
		require.NoError(t, err)
		assert.True(t, active)
	}
}

func TestCartService_Snapshot_EmptyCart(t *testing.T) {
	f := newCartFixture(t)
	snap, err := f.carts.Snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", snap.UserID)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0.0, snap.TotalPrice)
}

func TestCartService_Abandon(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, f.carts.Abandon(ctx, "user-1"))

	avail, err := f.ledger.Availability(ctx, "FL-001")
	require.NoError(t, err)
	assert.Equal(t, 30, avail.Available)

	snap, err := f.carts.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, snap.Items)

	// Abandoning an empty cart is a no-op.
	assert.NoError(t, f.carts.Abandon(ctx, "user-1"))
}

func TestCartService_CartsAreIsolatedPerUser(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	f.expectFlight(flight)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, "user-2", AddItemInput{FlightID: "FL-001", Quantity: 1})
	require.NoError(t, err)

	snap1, err := f.carts.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	snap2, err := f.carts.Snapshot(ctx, "user-2")
	require.NoError(t, err)

	assert.Equal(t, 2, snap1.TotalQuantity)
	assert.Equal(t, 1, snap2.TotalQuantity)
}

func TestCartService_PriceSnapshotAtAddTime(t *testing.T) {
	flight := testFlight("FL-001", 30)
	f := newCartFixture(t, flight)
	ctx := context.Background()

	f.catalog.EXPECT().GetFlight(gomock.Any(), "FL-001").Return(flight, nil)
	snap, err := f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, 150.00, snap.Items[0].UnitPrice.Amount)

	// A later catalog price change does not reprice lines already in the cart.
	repriced := *flight
	repriced.Price = domain.PriceInfo{Amount: 199.00, Currency: "USD"}
	f.catalog.EXPECT().GetFlight(gomock.Any(), "FL-001").Return(&repriced, nil)

	snap, err = f.carts.AddItem(ctx, "user-1", AddItemInput{FlightID: "FL-001", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 150.00, snap.Items[0].UnitPrice.Amount)
	assert.Equal(t, 199.00, snap.Items[1].UnitPrice.Amount)
	assert.Equal(t, 349.00, snap.TotalPrice)

	// Time passing changes nothing either.
	_, err = f.carts.Snapshot(ctx, "user-1")
	require.NoError(t, err)
}

func TestCartService_AddItem_UnknownFlight(t *testing.T) {
	f := newCartFixture(t)
	f.catalog.EXPECT().GetFlight(gomock.Any(), "FL-404").Return(nil, domain.ErrFlightNotFound)

	_, err := f.carts.AddItem(context.Background(), "user-1", AddItemInput{FlightID: "FL-404", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}
