package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

type MySQLOrderItemRepository struct {
	db *sqlx.DB
}

func NewMySQLOrderItemRepository(db *sqlx.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

func (r *MySQLOrderItemRepository) Insert(ctx context.Context, tx sqlx.ExtContext, item domain.OrderItem) error {
	_, err := sqlx.NamedExecContext(ctx, tx, `
		INSERT INTO OrderItems (id, orderId, productId, quantity, warehouseId, attributes, reserved)
		VALUES (:id, :orderId, :productId, :quantity, :warehouseId, :attributes, :reserved)`,
		item)
	if mysql.IsDuplicateKey(err) {
		return apperrors.NewConflictError(fmt.Sprintf("order item with id %s already exists", item.ID))
	}
	if err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func (r *MySQLOrderItemRepository) FindByOrderID(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := sqlx.SelectContext(ctx, r.db, &items, `
		SELECT id, orderId, productId, quantity, warehouseId, attributes, reserved
		FROM OrderItems
		WHERE orderId = ?
		ORDER BY productId, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	return items, nil
}

// SetReserved records whether the line's quantity is currently reserved.
func (r *MySQLOrderItemRepository) SetReserved(ctx context.Context, id string, reserved bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE OrderItems SET reserved = ? WHERE id = ?`, reserved, id)
	if err != nil {
		return fmt.Errorf("updating order item reservation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order item with id %s not found", id))
	}

	return nil
}

// ClaimRelease clears the reserved flag only when it is still set. A false
// result means another caller already released the line or it was never
// reserved.
func (r *MySQLOrderItemRepository) ClaimRelease(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE OrderItems SET reserved = 0 WHERE id = ? AND reserved = 1`, id)
	if err != nil {
		return false, fmt.Errorf("claiming order item release: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}
