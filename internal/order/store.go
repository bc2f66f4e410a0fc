package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Store is the durable record store keyed by order id. Upsert must be
// safe for concurrent writers to different ids, and writes to the same
// id must serialize; Postgres row-level locking satisfies both.
type Store interface {
	Exists(ctx context.Context, orderID int64) (bool, error)
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, orderID int64) (*Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Exists(ctx context.Context, orderID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_orders WHERE order_id = $1`, orderID,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed order: %w", err)
	}
	return true, nil
}

// Upsert inserts the record or, when the order id is already present,
// overwrites the mutable fields. created_at is set by the database on
// first insert only; the stored value is read back into rec.
func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	var extraJSON []byte
	if rec.Extra != nil {
		extraJSON, err = json.Marshal(rec.Extra)
		if err != nil {
			return fmt.Errorf("failed to marshal extra: %w", err)
		}
	}

	query := `
		INSERT INTO processed_orders (order_id, customer, submitted_at, subtotal, discount, final_total, content_hash, items, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_id) DO UPDATE SET
			customer = EXCLUDED.customer,
			submitted_at = EXCLUDED.submitted_at,
			subtotal = EXCLUDED.subtotal,
			discount = EXCLUDED.discount,
			final_total = EXCLUDED.final_total,
			content_hash = EXCLUDED.content_hash,
			items = EXCLUDED.items,
			extra = EXCLUDED.extra
		RETURNING created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		rec.OrderID, rec.Customer, rec.SubmittedAt,
		rec.Subtotal, rec.Discount, rec.FinalTotal,
		rec.ContentHash, itemsJSON, extraJSON,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert processed order %d: %w", rec.OrderID, err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orderID int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT order_id, customer, submitted_at, subtotal, discount, final_total, content_hash, items, extra, created_at
		FROM processed_orders
		WHERE order_id = $1
	`, orderID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed order %d: %w", orderID, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, customer, submitted_at, subtotal, discount, final_total, content_hash, items, extra, created_at
		FROM processed_orders
		ORDER BY created_at DESC, order_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed orders: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processed order: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list processed orders: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var itemsJSON, extraJSON []byte

	err := row.Scan(
		&rec.OrderID, &rec.Customer, &rec.SubmittedAt,
		&rec.Subtotal, &rec.Discount, &rec.FinalTotal,
		&rec.ContentHash, &itemsJSON, &extraJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}
	if len(extraJSON) > 0 {
		if err := json.Unmarshal(extraJSON, &rec.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra: %w", err)
		}
	}

	return &rec, nil
}
