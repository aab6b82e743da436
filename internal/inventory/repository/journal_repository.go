package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
)

const journalColumns = `id, objectType, objectId, positionId, productId, warehouseId, attributes, reference, inQty, outQty, createdOnUtc`

type MySQLJournalRepository struct {
	db *sqlx.DB
}

func NewMySQLJournalRepository(db *sqlx.DB) *MySQLJournalRepository {
	return &MySQLJournalRepository{db: db}
}

// InsertIfAbsent records a booking. It reports false, without error, when the
// (productId, positionId) pair is already booked.
func (r *MySQLJournalRepository) InsertIfAbsent(ctx context.Context, tx sqlx.ExtContext, j domain.InventoryJournal) (bool, error) {
	result, err := sqlx.NamedExecContext(ctx, tx, `
		INSERT IGNORE INTO InventoryJournal (`+journalColumns+`)
		VALUES (:id, :objectType, :objectId, :positionId, :productId, :warehouseId, :attributes, :reference, :inQty, :outQty, :createdOnUtc)`,
		j)
	if err != nil {
		return false, fmt.Errorf("inserting inventory journal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *MySQLJournalRepository) Exists(ctx context.Context, productID, positionID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists,
		`SELECT EXISTS(SELECT 1 FROM InventoryJournal WHERE productId = ? AND positionId = ?)`,
		productID, positionID)
	if err != nil {
		return false, fmt.Errorf("checking inventory journal: %w", err)
	}

	return exists, nil
}

// FindByPositionIDForUpdate returns every booking of a shipment item, locking
// the journal rows.
func (r *MySQLJournalRepository) FindByPositionIDForUpdate(ctx context.Context, tx sqlx.ExtContext, positionID string) ([]domain.InventoryJournal, error) {
	var journals []domain.InventoryJournal
	err := sqlx.SelectContext(ctx, tx, &journals,
		`SELECT `+journalColumns+` FROM InventoryJournal WHERE positionId = ? ORDER BY productId FOR UPDATE`,
		positionID)
	if err != nil {
		return nil, fmt.Errorf("querying inventory journal by position: %w", err)
	}

	return journals, nil
}

func (r *MySQLJournalRepository) Delete(ctx context.Context, tx sqlx.ExtContext, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM InventoryJournal WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting inventory journal: %w", err)
	}
	return nil
}
