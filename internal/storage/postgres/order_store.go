package postgres

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

const orderColumns = `order_id, client_order_id, trader, pair_id, side, kind, time_in_force,
	price::text, quantity::text, quantity_filled::text, total_amount::text, total_fee::text, reserved::text,
	status, created_at, updated_at`

// OrderStore implements storage.OrderStore using PostgreSQL
type OrderStore struct {
	pool *pgxpool.Pool
}

var (
	_ storage.OrderStore       = (*OrderStore)(nil)
	_ storage.OrderIDWatermark = (*OrderStore)(nil)
)

// NewOrderStore wraps a migrated pool, see Open
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

func (s *OrderStore) Save(order *types.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO orders (order_id, client_order_id, trader, pair_id, side, kind, time_in_force,
			price, quantity, quantity_filled, total_amount, total_fee, reserved, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (order_id) DO UPDATE SET
			quantity_filled = EXCLUDED.quantity_filled,
			total_amount = EXCLUDED.total_amount,
			total_fee = EXCLUDED.total_fee,
			reserved = EXCLUDED.reserved,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		int64(order.ID), order.ClientOrderID, order.Trader, order.PairID,
		order.Side.String(), order.Kind.String(), order.TimeInForce.String(),
		numeric(order.Price), numeric(order.Quantity), numeric(order.QuantityFilled),
		numeric(order.TotalAmount), numeric(order.TotalFee), numeric(order.Reserved),
		order.Status.String(), order.CreatedAt, order.UpdatedAt,
	)
	return err
}

// rowQuerier is the part of the pool maxOrderID needs
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MaxOrderID is the highest order id stored, zero for an empty table.
func (s *OrderStore) MaxOrderID() (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return maxOrderID(ctx, s.pool)
}

func maxOrderID(ctx context.Context, q rowQuerier) (uint64, error) {
	var id int64
	if err := q.QueryRow(ctx, `SELECT COALESCE(MAX(order_id), 0) FROM orders`).Scan(&id); err != nil {
		return 0, fmt.Errorf("max order id: %w", err)
	}
	return uint64(id), nil
}

func (s *OrderStore) Get(orderID uint64) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, int64(orderID))
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", orderID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) Remove(orderID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, int64(orderID))
	return err
}

func (s *OrderStore) GetAll() []*types.Order {
	return s.query(`SELECT ` + orderColumns + ` FROM orders ORDER BY order_id`)
}

func (s *OrderStore) GetByTrader(trader string) []*types.Order {
	return s.query(`SELECT `+orderColumns+` FROM orders WHERE trader = $1 ORDER BY order_id`, trader)
}

func (s *OrderStore) GetByPair(pairID string) []*types.Order {
	return s.query(`SELECT `+orderColumns+` FROM orders WHERE pair_id = $1 ORDER BY order_id`, pairID)
}

func (s *OrderStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *OrderStore) query(sql string, args ...any) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return []*types.Order{}
	}
	defer rows.Close()

	orders := []*types.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders
}

func scanOrder(row rowScanner) (*types.Order, error) {
	var (
		o                                        types.Order
		id                                       int64
		side, kind, tif, status                  string
		price, qty, filled, total, fee, reserved string
	)
	err := row.Scan(&id, &o.ClientOrderID, &o.Trader, &o.PairID, &side, &kind, &tif,
		&price, &qty, &filled, &total, &fee, &reserved, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ID = uint64(id)

	if err := parseEnums(map[encoding.TextUnmarshaler]string{
		&o.Side: side, &o.Kind: kind, &o.TimeInForce: tif, &o.Status: status,
	}); err != nil {
		return nil, err
	}
	if err := parseDecimals(map[*decimal.Decimal]string{
		&o.Price: price, &o.Quantity: qty, &o.QuantityFilled: filled,
		&o.TotalAmount: total, &o.TotalFee: fee, &o.Reserved: reserved,
	}); err != nil {
		return nil, err
	}
	return &o, nil
}
