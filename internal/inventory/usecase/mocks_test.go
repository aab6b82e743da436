package usecase

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/attribute"
	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/inventory/service"
)

type fakeTx struct {
	sqlx.ExtContext
	CommitFunc func() error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit() error {
	if t.CommitFunc != nil {
		if err := t.CommitFunc(); err != nil {
			return err
		}
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback() error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type mockTxManager struct {
	BeginTxFunc func(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
	txs         []*fakeTx
}

func (m *mockTxManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error) {
	if m.BeginTxFunc != nil {
		return m.BeginTxFunc(ctx, opts)
	}
	tx := &fakeTx{}
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *mockTxManager) last() *fakeTx {
	if len(m.txs) == 0 {
		return nil
	}
	return m.txs[len(m.txs)-1]
}

type mockProductRepository struct {
	FindByIDFunc                            func(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Product, error)
	FindByIDForUpdateFunc                   func(ctx context.Context, tx sqlx.ExtContext, id string) (*domain.Product, error)
	UpdateStockFunc                         func(ctx context.Context, tx sqlx.ExtContext, id string, stock, reserved int) error
	UpdateWarehouseInventoryFunc            func(ctx context.Context, tx sqlx.ExtContext, productID string, row domain.WarehouseInventory) error
	UpdateCombinationStockFunc              func(ctx context.Context, tx sqlx.ExtContext, c domain.AttributeCombination) error
	UpdateCombinationWarehouseInventoryFunc func(ctx context.Context, tx sqlx.ExtContext, combinationID string, row domain.WarehouseInventory) error
	UpdateLowStockStateFunc                 func(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error
	UpdateStockProductFunc                  func(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error
}

func (m *mockProductRepository) FindByID(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Product, error) {
	return m.FindByIDFunc(ctx, q, id)
}

func (m *mockProductRepository) FindByIDForUpdate(ctx context.Context, tx sqlx.ExtContext, id string) (*domain.Product, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockProductRepository) UpdateStock(ctx context.Context, tx sqlx.ExtContext, id string, stock, reserved int) error {
	return m.UpdateStockFunc(ctx, tx, id, stock, reserved)
}

func (m *mockProductRepository) UpdateWarehouseInventory(ctx context.Context, tx sqlx.ExtContext, productID string, row domain.WarehouseInventory) error {
	return m.UpdateWarehouseInventoryFunc(ctx, tx, productID, row)
}

func (m *mockProductRepository) UpdateCombinationStock(ctx context.Context, tx sqlx.ExtContext, c domain.AttributeCombination) error {
	return m.UpdateCombinationStockFunc(ctx, tx, c)
}

func (m *mockProductRepository) UpdateCombinationWarehouseInventory(ctx context.Context, tx sqlx.ExtContext, combinationID string, row domain.WarehouseInventory) error {
	return m.UpdateCombinationWarehouseInventoryFunc(ctx, tx, combinationID, row)
}

func (m *mockProductRepository) UpdateLowStockState(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error {
	return m.UpdateLowStockStateFunc(ctx, tx, p)
}

func (m *mockProductRepository) UpdateStockProduct(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error {
	return m.UpdateStockProductFunc(ctx, tx, p)
}

// productStore backs a mockProductRepository with products kept in memory.
// Reads hand out copies, so only persisted rows change the stored state.
type productStore struct {
	products map[string]*domain.Product
}

func newProductStore(products ...*domain.Product) (*productStore, *mockProductRepository) {
	s := &productStore{products: make(map[string]*domain.Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = cloneProduct(p)
	}

	find := func(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Product, error) {
		p, ok := s.products[id]
		if !ok {
			return nil, apperrors.NewNotFoundError("product with id " + id + " not found")
		}
		return cloneProduct(p), nil
	}

	repo := &mockProductRepository{
		FindByIDFunc:          find,
		FindByIDForUpdateFunc: find,
		UpdateStockFunc: func(ctx context.Context, tx sqlx.ExtContext, id string, stock, reserved int) error {
			s.products[id].StockQuantity = stock
			s.products[id].ReservedQuantity = reserved
			return nil
		},
		UpdateWarehouseInventoryFunc: func(ctx context.Context, tx sqlx.ExtContext, productID string, row domain.WarehouseInventory) error {
			*s.products[productID].WarehouseRow(row.WarehouseID) = row
			return nil
		},
		UpdateCombinationStockFunc: func(ctx context.Context, tx sqlx.ExtContext, c domain.AttributeCombination) error {
			stored := s.products[c.ProductID].Combination(c.ID)
			stored.StockQuantity = c.StockQuantity
			stored.ReservedQuantity = c.ReservedQuantity
			return nil
		},
		UpdateCombinationWarehouseInventoryFunc: func(ctx context.Context, tx sqlx.ExtContext, combinationID string, row domain.WarehouseInventory) error {
			for _, p := range s.products {
				if c := p.Combination(combinationID); c != nil {
					*c.WarehouseRow(row.WarehouseID) = row
				}
			}
			return nil
		},
		UpdateLowStockStateFunc: func(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error {
			stored := s.products[p.ID]
			stored.LowStock = p.LowStock
			stored.DisableBuyButton = p.DisableBuyButton
			stored.Published = p.Published
			return nil
		},
		UpdateStockProductFunc: func(ctx context.Context, tx sqlx.ExtContext, p *domain.Product) error {
			stored := s.products[p.ID]
			stored.StockQuantity = p.StockQuantity
			stored.ReservedQuantity = p.ReservedQuantity
			stored.LowStock = p.LowStock
			stored.UpdatedOnUtc = p.UpdatedOnUtc
			return nil
		},
	}

	return s, repo
}

func (s *productStore) get(id string) *domain.Product {
	return s.products[id]
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.WarehouseInventory = append([]domain.WarehouseInventory(nil), p.WarehouseInventory...)
	c.BundleProducts = append([]domain.BundleProduct(nil), p.BundleProducts...)
	c.AttributeValues = append([]domain.AttributeValue(nil), p.AttributeValues...)
	c.Combinations = make([]domain.AttributeCombination, len(p.Combinations))
	for i, comb := range p.Combinations {
		comb.WarehouseInventory = append([]domain.WarehouseInventory(nil), comb.WarehouseInventory...)
		c.Combinations[i] = comb
	}
	return &c
}

type publishCall struct {
	productIDs []string
	events     []domain.Event
}

type mockEffects struct {
	calls []publishCall
}

func (m *mockEffects) Publish(ctx context.Context, productIDs []string, events []domain.Event) {
	m.calls = append(m.calls, publishCall{productIDs: productIDs, events: events})
}

func eventNames(events []domain.Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName()+":"+e.AggregateID())
	}
	return names
}

func testCatalog() config.CatalogConfig {
	return config.CatalogConfig{PublishBackProductWhenCancellingOrders: true}
}

func newTestInventoryUseCase(txManager TransactionManager, products ProductRepository, effects EffectPublisher) *InventoryUseCase {
	parser := attribute.NewParser()
	return NewInventoryUseCase(
		txManager,
		products,
		service.NewEngine(parser, testCatalog()),
		service.NewPlanner(parser),
		effects,
		zap.NewNop(),
		config.InventoryConfig{MaxRetryAttempts: 3},
	)
}
