package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scribeworks/ordergate/pkg/pg"
	"github.com/scribeworks/ordergate/pkg/statemachine"
)

// PostgresRepository stores orders in Postgres. Status updates are
// conditional on the previous status so concurrent transitions of one order
// cannot both succeed.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `id, website_id, client_id, writer_id, title, status, deposit_paid, created_at, updated_at, updated_by`

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.WebsiteID, o.ClientID, o.WriterID, o.Title, string(o.State),
		o.DepositPaid, o.CreatedAt, o.UpdatedAt, o.UpdatedBy,
	)
	if pg.IsDuplicateKeyError(err) {
		return ErrOrderExists
	}
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) SetWriter(ctx context.Context, id, writerID string, at time.Time, by string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders
		SET writer_id = $2, updated_at = $3, updated_by = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		id, writerID, at, by,
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("set order writer: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) MarkDepositPaid(ctx context.Context, id string, at time.Time, by string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders
		SET deposit_paid = TRUE, updated_at = $2, updated_by = $3
		WHERE id = $1
		RETURNING `+orderColumns,
		id, at, by,
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("mark deposit paid: %w", err)
	}
	return o, nil
}

// scanOrder reads one orderColumns row. A missing row is ErrOrderNotFound.
func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.WebsiteID, &o.ClientID, &o.WriterID, &o.Title, &status,
		&o.DepositPaid, &o.CreatedAt, &o.UpdatedAt, &o.UpdatedBy)
	if pg.IsNotFoundError(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.State = statemachine.State(status)
	return &o, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, o *Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $3, updated_at = $4, updated_by = $5
			WHERE id = $1 AND status = $2`,
			o.ID, string(o.PreviousStatus()), string(o.State), o.UpdatedAt, o.UpdatedBy,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrOrderNotFound
			}
			return ErrStatusConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_history (order_id, from_status, to_status, actor_id, changed_at)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, string(o.PreviousStatus()), string(o.State), o.UpdatedBy, o.UpdatedAt,
		)
		return err
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrStatusConflict):
		return err
	case pg.IsForeignKeyViolationError(err):
		return ErrOrderNotFound
	default:
		return fmt.Errorf("update order status: %w", err)
	}
}

func (r *PostgresRepository) History(ctx context.Context, id string) ([]StatusChange, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, from_status, to_status, actor_id, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}

	changes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (StatusChange, error) {
		var (
			c        StatusChange
			from, to string
		)
		err := row.Scan(&c.OrderID, &from, &to, &c.ActorID, &c.At)
		c.From, c.To = statemachine.State(from), statemachine.State(to)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	return changes, nil
}
