package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

const orderColumns = `id, customerId, storeId, warehouseId, status, createdAt, updatedAt`

type MySQLOrderRepository struct {
	db *sqlx.DB
}

func NewMySQLOrderRepository(db *sqlx.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM Orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	return &order, nil
}

// InsertIfAbsent stores a new order. It reports false when an order with the
// same id already exists.
func (r *MySQLOrderRepository) InsertIfAbsent(ctx context.Context, tx sqlx.ExtContext, order domain.Order) (bool, error) {
	result, err := sqlx.NamedExecContext(ctx, tx, `
		INSERT IGNORE INTO Orders (`+orderColumns+`)
		VALUES (:id, :customerId, :storeId, :warehouseId, :status, :createdAt, :updatedAt)`,
		order)
	if err != nil {
		return false, fmt.Errorf("inserting order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// TransitionStatus moves the order from one status to another. It reports
// false when the order is not in the expected status.
func (r *MySQLOrderRepository) TransitionStatus(ctx context.Context, id, from, to string, updatedAt time.Time) (bool, error) {
	query := `UPDATE Orders SET status = ?, updatedAt = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, to, updatedAt, id, from)
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}
