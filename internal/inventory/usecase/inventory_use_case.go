package usecase

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/inventory/service"
)

const defaultTxTimeout = 5 * time.Second

var tracer = otel.Tracer("stockroom/inventory")

type InventoryUseCase struct {
	txManager TransactionManager
	products  ProductRepository
	engine    *service.Engine
	planner   *service.Planner
	effects   EffectPublisher
	logger    *zap.Logger
	cfg       config.InventoryConfig
	now       func() time.Time
}

func NewInventoryUseCase(
	txManager TransactionManager,
	products ProductRepository,
	engine *service.Engine,
	planner *service.Planner,
	effects EffectPublisher,
	logger *zap.Logger,
	cfg config.InventoryConfig,
) *InventoryUseCase {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = defaultTxTimeout
	}
	return &InventoryUseCase{
		txManager: txManager,
		products:  products,
		engine:    engine,
		planner:   planner,
		effects:   effects,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AdjustReserved reserves (negative quantityToChange) or releases (positive)
// stock of a product and of every bundle component or associated product it
// cascades to. The whole cascade commits or fails as one transaction.
func (uc *InventoryUseCase) AdjustReserved(ctx context.Context, productID string, quantityToChange int, attrs domain.CustomAttributes, warehouseID string) (err error) {
	ctx, span := tracer.Start(ctx, "InventoryUseCase.AdjustReserved", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantityToChange),
		attribute.String("warehouse.id", warehouseID),
	))
	defer func() { endSpan(span, err) }()

	if productID == "" {
		return apperrors.NewInvalidArgumentError("productId", "must not be empty")
	}
	if quantityToChange == 0 {
		return nil
	}

	var b *batch
	err = mysql.RetryOnDeadlock(ctx, uc.logger, uc.cfg.MaxRetryAttempts, "adjust-reserved", func(ctx context.Context) error {
		var err error
		b, err = uc.adjustReserved(ctx, productID, quantityToChange, attrs, warehouseID)
		return err
	})
	if err != nil {
		uc.logger.Error("adjust reserved failed", zap.String("productId", productID), zap.Int("quantity", quantityToChange), zap.Error(err))
		return err
	}

	uc.logger.Info("reserved quantity adjusted",
		zap.String("productId", productID),
		zap.Int("quantity", quantityToChange),
		zap.Int("productCount", len(b.ids)),
	)

	uc.effects.Publish(ctx, b.touched(), b.events)
	return nil
}

func (uc *InventoryUseCase) adjustReserved(ctx context.Context, productID string, quantityToChange int, attrs domain.CustomAttributes, warehouseID string) (*batch, error) {
	txCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()

	tx, err := uc.txManager.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	root, err := uc.products.FindByID(txCtx, tx, productID)
	if err != nil {
		return nil, err
	}

	steps, err := uc.planner.Plan(txCtx, root, quantityToChange, attrs, warehouseID, loaderFor(tx, uc.products))
	if err != nil {
		return nil, err
	}

	b, err := lockBatch(txCtx, tx, uc.products, service.ProductIDs(steps), true)
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		p, ok := b.products[step.ProductID]
		if !ok {
			continue
		}
		ch := &service.Changes{}
		if err := uc.engine.AdjustReserved(p, step.Quantity, step.Attributes, step.WarehouseID, ch); err != nil {
			return nil, err
		}
		b.record(p.ID, ch)
	}

	if err := b.persist(txCtx, tx, uc.products); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return b, nil
}

// UpdateStockProduct persists a stock edit made on product: its on-hand
// quantities, the recomputed low-stock flag and the update time. Reserved
// quantities are taken from the locked row, never from product. On success
// product holds the saved row. Back-in-stock subscribers are notified when
// the product becomes available again.
func (uc *InventoryUseCase) UpdateStockProduct(ctx context.Context, product *domain.Product, publishStockEvent bool) (err error) {
	if product == nil {
		return apperrors.NewInvalidArgumentError("product", "must not be nil")
	}

	ctx, span := tracer.Start(ctx, "InventoryUseCase.UpdateStockProduct", trace.WithAttributes(
		attribute.String("product.id", product.ID),
	))
	defer func() { endSpan(span, err) }()

	var saved *domain.Product
	err = uc.saveStock(ctx, product.ID, publishStockEvent, func(current *domain.Product) (*domain.Product, error) {
		copyStockQuantities(current, product)
		saved = current
		return current, nil
	})
	if err != nil {
		return err
	}
	*product = *saved
	return nil
}

// copyStockQuantities moves the on-hand quantities of edited onto current.
// Warehouse rows that current does not have are ignored.
func copyStockQuantities(current, edited *domain.Product) {
	if !current.UseMultipleWarehouses {
		current.StockQuantity = edited.StockQuantity
		return
	}
	for _, row := range edited.WarehouseInventory {
		if r := current.WarehouseRow(row.WarehouseID); r != nil {
			r.StockQuantity = row.StockQuantity
		}
	}
	current.SumWarehouses()
}

// SetStockQuantity overwrites the on-hand quantity of a product. For
// multi-warehouse products only the row of warehouseID is changed.
func (uc *InventoryUseCase) SetStockQuantity(ctx context.Context, productID string, stockQuantity int, warehouseID string, publishStockEvent bool) (err error) {
	if productID == "" {
		return apperrors.NewInvalidArgumentError("productId", "must not be empty")
	}
	if stockQuantity < 0 {
		return apperrors.NewInvalidArgumentError("stockQuantity", "must not be negative")
	}

	ctx, span := tracer.Start(ctx, "InventoryUseCase.SetStockQuantity", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("stock.quantity", stockQuantity),
	))
	defer func() { endSpan(span, err) }()

	return uc.saveStock(ctx, productID, publishStockEvent, func(current *domain.Product) (*domain.Product, error) {
		if !current.UseMultipleWarehouses {
			current.StockQuantity = stockQuantity
			return current, nil
		}
		row := current.WarehouseRow(warehouseID)
		if row == nil {
			return nil, apperrors.NewNotFoundError("product " + productID + " has no inventory in warehouse " + warehouseID)
		}
		row.StockQuantity = stockQuantity
		current.SumWarehouses()
		return current, nil
	})
}

// stockEdit receives the locked current row and returns the product to save.
type stockEdit func(current *domain.Product) (*domain.Product, error)

func (uc *InventoryUseCase) saveStock(ctx context.Context, productID string, publishStockEvent bool, edit stockEdit) error {
	var (
		saved        *domain.Product
		wasAvailable bool
	)
	err := mysql.RetryOnDeadlock(ctx, uc.logger, uc.cfg.MaxRetryAttempts, "update-stock-product", func(ctx context.Context) error {
		var err error
		saved, wasAvailable, err = uc.updateStockProduct(ctx, productID, edit)
		return err
	})
	if err != nil {
		uc.logger.Error("update stock product failed", zap.String("productId", productID), zap.Error(err))
		return err
	}

	var events []domain.Event
	if publishStockEvent {
		events = append(events, domain.StockUpdated{
			ProductID:        saved.ID,
			StockQuantity:    saved.StockQuantity,
			ReservedQuantity: saved.ReservedQuantity,
		})
	}
	events = append(events, domain.EntityUpdated{Entity: domain.EntityProduct, ID: saved.ID})
	if !wasAvailable && service.TotalStockQuantity(saved, service.StockQuery{Total: true}) > 0 {
		events = append(events, domain.NotifySubscribers{ProductID: saved.ID})
	}

	uc.logger.Info("stock updated",
		zap.String("productId", saved.ID),
		zap.Int("stockQuantity", saved.StockQuantity),
		zap.Bool("lowStock", saved.LowStock),
	)

	uc.effects.Publish(ctx, []string{saved.ID}, events)
	return nil
}

func (uc *InventoryUseCase) updateStockProduct(ctx context.Context, productID string, edit stockEdit) (*domain.Product, bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()

	tx, err := uc.txManager.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	current, err := uc.products.FindByIDForUpdate(txCtx, tx, productID)
	if err != nil {
		return nil, false, err
	}
	wasAvailable := service.TotalStockQuantity(current, service.StockQuery{Total: true}) > 0

	product, err := edit(current)
	if err != nil {
		return nil, false, err
	}

	product.LowStock = service.IsLowStock(product)
	product.UpdatedOnUtc = uc.now().UTC()

	if product.UseMultipleWarehouses {
		for _, row := range product.WarehouseInventory {
			if err := uc.products.UpdateWarehouseInventory(txCtx, tx, product.ID, row); err != nil {
				return nil, false, err
			}
		}
	}

	if err := uc.products.UpdateStockProduct(txCtx, tx, product); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	return product, wasAvailable, nil
}

func loaderFor(q sqlx.ExtContext, repo ProductRepository) service.ProductLoader {
	return func(ctx context.Context, productID string) (*domain.Product, error) {
		return repo.FindByID(ctx, q, productID)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
