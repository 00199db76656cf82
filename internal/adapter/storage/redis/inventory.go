// Package redis implements the inventory store on Redis so that several
// service instances can share one seat ledger. Each flight's inventory is a
// single JSON value mutated under an optimistic WATCH transaction, which
// gives the same per-flight serialization the in-memory store gets from a
// mutex.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

const (
	inventoryKeyPrefix = "inventory:flight:"
	flightSetKey       = "inventory:flights"

	// maxTxRetries bounds how often a contended update is retried before
	// the operation fails.
	maxTxRetries = 16
)

// ErrTxContention is returned when an update loses the optimistic
// transaction race more times than the retry budget allows.
var ErrTxContention = errors.New("inventory transaction contention")

// InventoryStore is a Redis-backed implementation of domain.InventoryStore.
type InventoryStore struct {
	client *redis.Client
}

// NewInventoryStore creates an inventory store on the given Redis client.
func NewInventoryStore(client *redis.Client) *InventoryStore {
	return &InventoryStore{client: client}
}

// Ensure creates the flight's inventory record if it does not exist yet.
func (s *InventoryStore) Ensure(ctx context.Context, flightID string, totalSeats int) error {
	if flightID == "" {
		return fmt.Errorf("%w: flight ID is required", domain.ErrInvalidRequest)
	}
	if totalSeats < 1 {
		return fmt.Errorf("%w: total seats must be at least 1", domain.ErrInvalidRequest)
	}

	payload, err := json.Marshal(domain.NewFlightInventory(flightID, totalSeats))
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}

	// SETNX keeps an existing ledger intact on re-registration.
	if err := s.client.SetNX(ctx, inventoryKey(flightID), payload, 0).Err(); err != nil {
		return fmt.Errorf("ensure inventory: %w", err)
	}
	if err := s.client.SAdd(ctx, flightSetKey, flightID).Err(); err != nil {
		return fmt.Errorf("register flight: %w", err)
	}
	return nil
}

// Update runs fn against the flight's inventory inside a WATCH transaction.
// When another writer commits first, the transaction is discarded and fn is
// re-run against the fresh state.
func (s *InventoryStore) Update(ctx context.Context, flightID string, fn func(inv *domain.FlightInventory) error) error {
	key := inventoryKey(flightID)

	txn := func(tx *redis.Tx) error {
		inv, err := loadInventory(ctx, tx, key, flightID)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}

		payload, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("marshal inventory: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: flight %s", ErrTxContention, flightID)
}

// View runs fn against a read-only copy of the flight's inventory.
func (s *InventoryStore) View(ctx context.Context, flightID string, fn func(inv *domain.FlightInventory) error) error {
	inv, err := loadInventory(ctx, s.client, inventoryKey(flightID), flightID)
	if err != nil {
		return err
	}
	return fn(inv)
}

// FlightIDs lists every flight registered in the ledger.
func (s *InventoryStore) FlightIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, flightSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	return ids, nil
}

// loadInventory fetches and decodes a flight's inventory value.
func loadInventory(ctx context.Context, c redis.Cmdable, key, flightID string) (*domain.FlightInventory, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: no inventory for flight %s", domain.ErrFlightNotFound, flightID)
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	var inv domain.FlightInventory
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	if inv.ConfirmedSeats == nil {
		inv.ConfirmedSeats = make(map[string]string)
	}
	if inv.UnassignedConfirmed == nil {
		inv.UnassignedConfirmed = make(map[string]struct{})
	}
	if inv.Holds == nil {
		inv.Holds = make(map[string]*domain.SeatHold)
	}
	return &inv, nil
}

func inventoryKey(flightID string) string {
	return inventoryKeyPrefix + flightID
}
