package usecase

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/mysql"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, tx sqlx.ExtContext, id string) (*domain.Product, error)
	UpdateStock(ctx context.Context, tx sqlx.ExtContext, id string, stock, reserved int) error
	UpdateWarehouseInventory(ctx context.Context, tx sqlx.ExtContext, productID string, row domain.WarehouseInventory) error
	UpdateCombinationStock(ctx context.Context, tx sqlx.ExtContext, c domain.AttributeCombination) error
	UpdateCombinationWarehouseInventory(ctx context.Context, tx sqlx.ExtContext, combinationID string, row domain.WarehouseInventory) error
	UpdateLowStockState(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error
	UpdateStockProduct(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error
}

type JournalRepository interface {
	InsertIfAbsent(ctx context.Context, tx sqlx.ExtContext, j domain.InventoryJournal) (bool, error)
	Exists(ctx context.Context, productID, positionID string) (bool, error)
	FindByPositionIDForUpdate(ctx context.Context, tx sqlx.ExtContext, positionID string) ([]domain.InventoryJournal, error)
	Delete(ctx context.Context, tx sqlx.ExtContext, id string) error
}

// EffectPublisher runs cache invalidation and event dispatch after commit.
type EffectPublisher interface {
	Publish(ctx context.Context, productIDs []string, events []domain.Event)
}
