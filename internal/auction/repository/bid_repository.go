package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

const bidColumns = `id, productId, customerId, storeId, warehouseId, orderId, amount, bin, date`

// Bid orderings. Ties on the leading column are broken so that the same bid
// wins regardless of storage order.
const (
	orderByLatest  = `ORDER BY date DESC, amount DESC, id ASC`
	orderByHighest = `ORDER BY amount DESC, date ASC, id ASC`
)

type MySQLBidRepository struct {
	db *sqlx.DB
}

func NewMySQLBidRepository(db *sqlx.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) Insert(ctx context.Context, tx sqlx.ExtContext, bid domain.Bid) error {
	_, err := sqlx.NamedExecContext(ctx, tx, `
		INSERT INTO Bid (`+bidColumns+`)
		VALUES (:id, :productId, :customerId, :storeId, :warehouseId, :orderId, :amount, :bin, :date)`,
		bid)
	if mysql.IsDuplicateKey(err) {
		return apperrors.NewConflictError(fmt.Sprintf("bid with id %s already exists", bid.ID))
	}
	if err != nil {
		return fmt.Errorf("inserting bid: %w", err)
	}
	return nil
}

func (r *MySQLBidRepository) Delete(ctx context.Context, tx sqlx.ExtContext, id string) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM Bid WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting bid: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("bid with id %s not found", id))
	}

	return nil
}

// AssignOrder links a bid to the order created from it. Only bids without an
// order are updated.
func (r *MySQLBidRepository) AssignOrder(ctx context.Context, tx sqlx.ExtContext, id, orderID string) error {
	result, err := tx.ExecContext(ctx, `UPDATE Bid SET orderId = ? WHERE id = ? AND orderId = ''`, orderID, id)
	if err != nil {
		return fmt.Errorf("assigning order to bid: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("bid %s is missing or already has an order", id))
	}

	return nil
}

func (r *MySQLBidRepository) FindByID(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Bid, error) {
	bid, err := r.findOne(ctx, q, `SELECT `+bidColumns+` FROM Bid WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying bid by id: %w", err)
	}
	if bid == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("bid with id %s not found", id))
	}
	return bid, nil
}

// FindByOrderID returns the bid converted into orderID, or nil.
func (r *MySQLBidRepository) FindByOrderID(ctx context.Context, q sqlx.ExtContext, orderID string) (*domain.Bid, error) {
	bid, err := r.findOne(ctx, q, `SELECT `+bidColumns+` FROM Bid WHERE orderId = ? ORDER BY id LIMIT 1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying bid by order: %w", err)
	}
	return bid, nil
}

// FindLatestByProductID returns the most recent bid on a product, or nil.
func (r *MySQLBidRepository) FindLatestByProductID(ctx context.Context, q sqlx.ExtContext, productID string) (*domain.Bid, error) {
	bid, err := r.findOne(ctx, q, `SELECT `+bidColumns+` FROM Bid WHERE productId = ? `+orderByLatest+` LIMIT 1`, productID)
	if err != nil {
		return nil, fmt.Errorf("querying latest bid: %w", err)
	}
	return bid, nil
}

// FindHighestByProductID returns the highest bid on a product, or nil.
func (r *MySQLBidRepository) FindHighestByProductID(ctx context.Context, q sqlx.ExtContext, productID string) (*domain.Bid, error) {
	bid, err := r.findOne(ctx, q, `SELECT `+bidColumns+` FROM Bid WHERE productId = ? `+orderByHighest+` LIMIT 1`, productID)
	if err != nil {
		return nil, fmt.Errorf("querying highest bid: %w", err)
	}
	return bid, nil
}

func (r *MySQLBidRepository) FindByProductID(ctx context.Context, q sqlx.ExtContext, productID string, limit, offset int) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := sqlx.SelectContext(ctx, q, &bids,
		`SELECT `+bidColumns+` FROM Bid WHERE productId = ? `+orderByLatest+` LIMIT ? OFFSET ?`,
		productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying bids by product: %w", err)
	}
	return bids, nil
}

func (r *MySQLBidRepository) CountByProductID(ctx context.Context, q sqlx.ExtContext, productID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, q, &count, `SELECT COUNT(*) FROM Bid WHERE productId = ?`, productID); err != nil {
		return 0, fmt.Errorf("counting bids by product: %w", err)
	}
	return count, nil
}

func (r *MySQLBidRepository) FindByCustomerID(ctx context.Context, q sqlx.ExtContext, customerID string) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := sqlx.SelectContext(ctx, q, &bids,
		`SELECT `+bidColumns+` FROM Bid WHERE customerId = ? `+orderByLatest,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("querying bids by customer: %w", err)
	}
	return bids, nil
}

func (r *MySQLBidRepository) findOne(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (*domain.Bid, error) {
	var bid domain.Bid
	err := sqlx.GetContext(ctx, q, &bid, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
