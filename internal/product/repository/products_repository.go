package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

const productColumns = `
		id, name, productTypeId, manageInventoryMethodId, stockQuantity, reservedQuantity,
		useMultipleWarehouses, warehouseId, minStockQuantity, lowStock, lowStockActivityId,
		notifyAdminForQuantityBelow, backorderModeId, disableBuyButton, published,
		displayStockAvailability, displayStockQuantity, allowOutOfStockOrders,
		highestBid, highestBidder, auctionEnded, availableEndDateTimeUtc, updatedOnUtc`

type MySQLRepository struct {
	db *sqlx.DB
}

func NewMySQLRepository(db *sqlx.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// FindByIDs loads the products matching ids, with their owned rows. Unknown
// ids are ignored.
func (r *MySQLRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT`+productColumns+` FROM Product WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("building products query: %w", err)
	}

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}

	for i := range products {
		if err := r.loadOwnedRows(ctx, r.db, &products[i]); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// FindByID reads a product without locking it.
func (r *MySQLRepository) FindByID(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Product, error) {
	return r.find(ctx, q, id, `SELECT`+productColumns+` FROM Product WHERE id = ?`)
}

// FindByIDForUpdate reads a product and holds its row lock until the
// transaction ends. Owned rows are only written by holders of that lock.
func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, tx sqlx.ExtContext, id string) (*domain.Product, error) {
	return r.find(ctx, tx, id, `SELECT`+productColumns+` FROM Product WHERE id = ? FOR UPDATE`)
}

func (r *MySQLRepository) find(ctx context.Context, q sqlx.ExtContext, id, query string) (*domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, q, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}

	if err := r.loadOwnedRows(ctx, q, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

type combinationWarehouseRow struct {
	CombinationID string `db:"combinationId"`
	domain.WarehouseInventory
}

func (r *MySQLRepository) loadOwnedRows(ctx context.Context, q sqlx.ExtContext, p *domain.Product) error {
	err := sqlx.SelectContext(ctx, q, &p.WarehouseInventory, `
		SELECT warehouseId, stockQuantity, reservedQuantity
		FROM ProductWarehouseInventory
		WHERE productId = ?
		ORDER BY warehouseId`, p.ID)
	if err != nil {
		return fmt.Errorf("querying warehouse inventory: %w", err)
	}

	err = sqlx.SelectContext(ctx, q, &p.Combinations, `
		SELECT id, productId, attributes, stockQuantity, reservedQuantity,
		       notifyAdminForQuantityBelow, allowOutOfStockOrders
		FROM ProductAttributeCombination
		WHERE productId = ?
		ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("querying attribute combinations: %w", err)
	}

	if len(p.Combinations) > 0 {
		var rows []combinationWarehouseRow
		err = sqlx.SelectContext(ctx, q, &rows, `
			SELECT cw.combinationId, cw.warehouseId, cw.stockQuantity, cw.reservedQuantity
			FROM CombinationWarehouseInventory cw
			JOIN ProductAttributeCombination c ON c.id = cw.combinationId
			WHERE c.productId = ?
			ORDER BY cw.combinationId, cw.warehouseId`, p.ID)
		if err != nil {
			return fmt.Errorf("querying combination warehouse inventory: %w", err)
		}
		for _, row := range rows {
			if c := p.Combination(row.CombinationID); c != nil {
				c.WarehouseInventory = append(c.WarehouseInventory, row.WarehouseInventory)
			}
		}
	}

	err = sqlx.SelectContext(ctx, q, &p.BundleProducts, `
		SELECT bundleProductId, productId, quantity, displayOrder
		FROM BundleProduct
		WHERE bundleProductId = ?
		ORDER BY displayOrder, productId`, p.ID)
	if err != nil {
		return fmt.Errorf("querying bundle products: %w", err)
	}

	err = sqlx.SelectContext(ctx, q, &p.AttributeValues, `
		SELECT id, productId, attributeMappingId, name, attributeValueTypeId, associatedProductId, quantity
		FROM ProductAttributeValue
		WHERE productId = ?
		ORDER BY attributeMappingId, id`, p.ID)
	if err != nil {
		return fmt.Errorf("querying attribute values: %w", err)
	}

	return nil
}

func (r *MySQLRepository) UpdateStock(ctx context.Context, tx sqlx.ExtContext, id string, stock, reserved int) error {
	return execOne(ctx, tx, fmt.Sprintf("product with id %s not found", id),
		`UPDATE Product SET stockQuantity = ?, reservedQuantity = ? WHERE id = ?`,
		stock, reserved, id)
}

func (r *MySQLRepository) UpdateWarehouseInventory(ctx context.Context, tx sqlx.ExtContext, productID string, row domain.WarehouseInventory) error {
	return execOne(ctx, tx, fmt.Sprintf("warehouse %s of product %s not found", row.WarehouseID, productID),
		`UPDATE ProductWarehouseInventory SET stockQuantity = ?, reservedQuantity = ? WHERE productId = ? AND warehouseId = ?`,
		row.StockQuantity, row.ReservedQuantity, productID, row.WarehouseID)
}

func (r *MySQLRepository) UpdateCombinationStock(ctx context.Context, tx sqlx.ExtContext, c domain.AttributeCombination) error {
	return execOne(ctx, tx, fmt.Sprintf("attribute combination with id %s not found", c.ID),
		`UPDATE ProductAttributeCombination SET stockQuantity = ?, reservedQuantity = ? WHERE id = ?`,
		c.StockQuantity, c.ReservedQuantity, c.ID)
}

func (r *MySQLRepository) UpdateCombinationWarehouseInventory(ctx context.Context, tx sqlx.ExtContext, combinationID string, row domain.WarehouseInventory) error {
	return execOne(ctx, tx, fmt.Sprintf("warehouse %s of combination %s not found", row.WarehouseID, combinationID),
		`UPDATE CombinationWarehouseInventory SET stockQuantity = ?, reservedQuantity = ? WHERE combinationId = ? AND warehouseId = ?`,
		row.StockQuantity, row.ReservedQuantity, combinationID, row.WarehouseID)
}

// UpdateLowStockState persists the flags driven by low-stock activity.
func (r *MySQLRepository) UpdateLowStockState(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error {
	return execOne(ctx, tx, fmt.Sprintf("product with id %s not found", p.ID),
		`UPDATE Product SET lowStock = ?, disableBuyButton = ?, published = ? WHERE id = ?`,
		p.LowStock, p.DisableBuyButton, p.Published, p.ID)
}

// UpdateStockProduct persists the stock columns written by a stock edit.
func (r *MySQLRepository) UpdateStockProduct(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error {
	return execOne(ctx, tx, fmt.Sprintf("product with id %s not found", p.ID),
		`UPDATE Product SET stockQuantity = ?, reservedQuantity = ?, lowStock = ?, updatedOnUtc = ? WHERE id = ?`,
		p.StockQuantity, p.ReservedQuantity, p.LowStock, p.UpdatedOnUtc, p.ID)
}

func (r *MySQLRepository) UpdateHighestBid(ctx context.Context, tx sqlx.ExtContext, id string, amount decimal.Decimal, bidder string, updatedOn time.Time) error {
	return execOne(ctx, tx, fmt.Sprintf("product with id %s not found", id),
		`UPDATE Product SET highestBid = ?, highestBidder = ?, updatedOnUtc = ? WHERE id = ?`,
		amount, bidder, updatedOn, id)
}

// UpdateAuctionEnded flags an auction as ended or reopened. With setEndDate
// the auction's end date is moved to updatedOn.
func (r *MySQLRepository) UpdateAuctionEnded(ctx context.Context, tx sqlx.ExtContext, id string, ended, setEndDate bool, updatedOn time.Time) error {
	notFound := fmt.Sprintf("product with id %s not found", id)
	if setEndDate {
		return execOne(ctx, tx, notFound,
			`UPDATE Product SET auctionEnded = ?, availableEndDateTimeUtc = ?, updatedOnUtc = ? WHERE id = ?`,
			ended, updatedOn, updatedOn, id)
	}
	return execOne(ctx, tx, notFound,
		`UPDATE Product SET auctionEnded = ?, updatedOnUtc = ? WHERE id = ?`,
		ended, updatedOn, id)
}

// FindAuctionsToEnd lists open auctions whose end date is before now.
func (r *MySQLRepository) FindAuctionsToEnd(ctx context.Context, now time.Time) ([]domain.Product, error) {
	var products []domain.Product
	err := sqlx.SelectContext(ctx, r.db, &products, `SELECT`+productColumns+`
		FROM Product
		WHERE productTypeId = ?
		  AND auctionEnded = 0
		  AND availableEndDateTimeUtc IS NOT NULL
		  AND availableEndDateTimeUtc < ?
		ORDER BY availableEndDateTimeUtc, id`,
		domain.ProductTypeAuction, now)
	if err != nil {
		return nil, fmt.Errorf("querying auctions to end: %w", err)
	}

	return products, nil
}

func execOne(ctx context.Context, tx sqlx.ExtContext, notFound, query string, args ...interface{}) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("executing update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(notFound)
	}

	return nil
}
