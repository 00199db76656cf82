// Package mysql persists orders in MySQL. Order headers and their items live
// in separate tables written inside one transaction, so a partially saved
// order can never be observed.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/travelbook/booking-checkout-service/internal/domain"
)

// Open connects to MySQL with sane pool settings and verifies the
// connection before returning. The DSN should include parseTime=true so
// DATETIME columns scan into time.Time.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// OrderStore is a MySQL implementation of domain.OrderStore.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore constructs an OrderStore over the given connection pool.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Save persists an order and its items in one transaction.
func (s *OrderStore) Save(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("%w: order ID is required", domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const qOrder = `INSERT INTO orders
		(id, user_id, total_price, currency, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, qOrder,
		order.ID, order.UserID, order.TotalPrice, order.Currency,
		string(order.Status), order.CreatedAt.UTC(), order.UpdatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	const qItem = `INSERT INTO order_items
		(id, order_id, flight_id, flight_number, quantity, unit_price_amount,
		 unit_price_currency, baggage_type, allocations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, item := range order.Items {
		allocations, err := json.Marshal(item.Allocations)
		if err != nil {
			return fmt.Errorf("marshal allocations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, qItem,
			item.ID, order.ID, item.FlightID, item.FlightNumber, item.Quantity,
			item.UnitPrice.Amount, item.UnitPrice.Currency,
			string(item.BaggageType), allocations,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// GetByID fetches an order with its items.
func (s *OrderStore) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	const q = `SELECT id, user_id, total_price, currency, status, created_at, updated_at
		FROM orders WHERE id = ?`

	var order domain.Order
	var status string
	err := s.db.QueryRowContext(ctx, q, orderID).Scan(
		&order.ID, &order.UserID, &order.TotalPrice, &order.Currency,
		&status, &order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", domain.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := s.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// ListByUser returns the user's orders with their items, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	const q = `SELECT id, user_id, total_price, currency, status, created_at, updated_at
		FROM orders WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.TotalPrice, &order.Currency,
			&status, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for _, order := range orders {
		items, err := s.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	return orders, nil
}

// UpdateStatus transitions an existing order to the given status.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const q = `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, string(status), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: order %s", domain.ErrOrderNotFound, orderID)
	}
	return nil
}

// loadItems fetches the items belonging to one order.
func (s *OrderStore) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `SELECT id, flight_id, flight_number, quantity, unit_price_amount,
		unit_price_currency, baggage_type, allocations
		FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var baggage string
		var allocations []byte
		if err := rows.Scan(
			&item.ID, &item.FlightID, &item.FlightNumber, &item.Quantity,
			&item.UnitPrice.Amount, &item.UnitPrice.Currency,
			&baggage, &allocations,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.BaggageType = domain.BaggageType(baggage)
		if len(allocations) > 0 {
			if err := json.Unmarshal(allocations, &item.Allocations); err != nil {
				return nil, fmt.Errorf("decode allocations: %w", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}
