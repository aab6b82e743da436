package usecase

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/inventory/service"
)

type BookingUseCase struct {
	txManager TransactionManager
	products  ProductRepository
	journals  JournalRepository
	engine    *service.Engine
	planner   *service.Planner
	effects   EffectPublisher
	logger    *zap.Logger
	cfg       config.InventoryConfig
	now       func() time.Time
	newID     func() string
}

func NewBookingUseCase(
	txManager TransactionManager,
	products ProductRepository,
	journals JournalRepository,
	engine *service.Engine,
	planner *service.Planner,
	effects EffectPublisher,
	logger *zap.Logger,
	cfg config.InventoryConfig,
) *BookingUseCase {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = defaultTxTimeout
	}
	return &BookingUseCase{
		txManager: txManager,
		products:  products,
		journals:  journals,
		engine:    engine,
		planner:   planner,
		effects:   effects,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// BookReservedInventory takes a shipped item out of stock and reserved stock.
// Every journaled product is booked at most once per shipment item: the
// journal row is written first and an existing row means the product was
// already booked.
func (uc *BookingUseCase) BookReservedInventory(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) (err error) {
	if err := validateShipment(shipment, item); err != nil {
		return err
	}
	if item.Quantity <= 0 {
		return apperrors.NewInvalidArgumentError("shipmentItem", "quantity must be positive")
	}

	ctx, span := tracer.Start(ctx, "BookingUseCase.BookReservedInventory", trace.WithAttributes(
		attribute.String("shipment.id", shipment.ID),
		attribute.String("shipmentItem.id", item.ID),
		attribute.String("product.id", item.ProductID),
	))
	defer func() { endSpan(span, err) }()

	var b *batch
	err = mysql.RetryOnDeadlock(ctx, uc.logger, uc.cfg.MaxRetryAttempts, "book-reserved-inventory", func(ctx context.Context) error {
		var err error
		b, err = uc.book(ctx, shipment, item)
		return err
	})
	if err != nil {
		uc.logger.Error("booking failed", zap.String("shipmentId", shipment.ID), zap.String("shipmentItemId", item.ID), zap.Error(err))
		return err
	}

	uc.logger.Info("inventory booked",
		zap.String("shipmentId", shipment.ID),
		zap.String("shipmentItemId", item.ID),
		zap.String("productId", item.ProductID),
		zap.Int("quantity", item.Quantity),
	)

	uc.effects.Publish(ctx, b.touched(), b.events)
	return nil
}

func (uc *BookingUseCase) book(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) (*batch, error) {
	txCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()

	tx, err := uc.txManager.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	root, err := uc.products.FindByID(txCtx, tx, item.ProductID)
	if err != nil {
		return nil, err
	}

	steps, err := uc.planner.Plan(txCtx, root, item.Quantity, item.Attributes, item.WarehouseID, loaderFor(tx, uc.products))
	if err != nil {
		return nil, err
	}

	b, err := lockBatch(txCtx, tx, uc.products, service.ProductIDs(steps), true)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	for _, step := range steps {
		p, ok := b.products[step.ProductID]
		if !ok {
			continue
		}

		ch := &service.Changes{}
		if p.Journaled() {
			journal := domain.InventoryJournal{
				ID:           uc.newID(),
				ObjectType:   domain.JournalObjectShipment,
				ObjectID:     shipment.ID,
				PositionID:   item.ID,
				ProductID:    p.ID,
				WarehouseID:  step.WarehouseID,
				Attributes:   step.Attributes,
				Reference:    strconv.Itoa(shipment.ShipmentNumber),
				OutQty:       step.Quantity,
				CreatedOnUtc: now,
			}
			inserted, err := uc.journals.InsertIfAbsent(txCtx, tx, journal)
			if err != nil {
				return nil, err
			}
			if !inserted {
				uc.logger.Info("shipment item already booked for product, skipping",
					zap.String("productId", p.ID),
					zap.String("shipmentItemId", item.ID),
				)
				continue
			}
			if err := uc.engine.BookInventory(p, step.Quantity, step.WarehouseID, step.Attributes, ch); err != nil {
				return nil, err
			}
			ch.Events = append(ch.Events, domain.EntityInserted{Entity: domain.EntityJournal, ID: journal.ID})
		}
		ch.Events = append(ch.Events, domain.EntityUpdated{Entity: domain.EntityProduct, ID: p.ID})
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

// ReverseBookedInventory puts back everything booked for a shipment item and
// removes its journal rows. An item that was never booked is a no-op.
func (uc *BookingUseCase) ReverseBookedInventory(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) (err error) {
	if err := validateShipment(shipment, item); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "BookingUseCase.ReverseBookedInventory", trace.WithAttributes(
		attribute.String("shipment.id", shipment.ID),
		attribute.String("shipmentItem.id", item.ID),
	))
	defer func() { endSpan(span, err) }()

	var b *batch
	err = mysql.RetryOnDeadlock(ctx, uc.logger, uc.cfg.MaxRetryAttempts, "reverse-booked-inventory", func(ctx context.Context) error {
		var err error
		b, err = uc.reverse(ctx, item)
		return err
	})
	if err != nil {
		uc.logger.Error("reversal failed", zap.String("shipmentId", shipment.ID), zap.String("shipmentItemId", item.ID), zap.Error(err))
		return err
	}
	if b == nil {
		uc.logger.Debug("nothing booked for shipment item", zap.String("shipmentItemId", item.ID))
		return nil
	}

	uc.logger.Info("booking reversed", zap.String("shipmentId", shipment.ID), zap.String("shipmentItemId", item.ID))

	uc.effects.Publish(ctx, b.touched(), b.events)
	return nil
}

func (uc *BookingUseCase) reverse(ctx context.Context, item *domain.ShipmentItem) (*batch, error) {
	txCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()

	tx, err := uc.txManager.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	journals, err := uc.journals.FindByPositionIDForUpdate(txCtx, tx, item.ID)
	if err != nil {
		return nil, err
	}
	if len(journals) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(journals))
	for _, j := range journals {
		ids = append(ids, j.ProductID)
	}

	b, err := lockBatch(txCtx, tx, uc.products, service.SortedIDs(ids), true)
	if err != nil {
		return nil, err
	}

	for _, j := range journals {
		if p, ok := b.products[j.ProductID]; ok {
			ch := &service.Changes{}
			if err := uc.engine.ReverseInventory(p, j, ch); err != nil {
				return nil, err
			}
			ch.Events = append(ch.Events, domain.EntityUpdated{Entity: domain.EntityProduct, ID: p.ID})
			b.record(p.ID, ch)
		}

		if err := uc.journals.Delete(txCtx, tx, j.ID); err != nil {
			return nil, err
		}
		b.emit(domain.EntityDeleted{Entity: domain.EntityJournal, ID: j.ID})
	}

	if err := b.persist(txCtx, tx, uc.products); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return b, nil
}

// CheckExistsInventoryJournal reports whether the shipment item identified
// by positionID has been booked against productID.
func (uc *BookingUseCase) CheckExistsInventoryJournal(ctx context.Context, productID, positionID string) (bool, error) {
	if productID == "" || positionID == "" {
		return false, apperrors.NewInvalidArgumentError("journal", "productId and positionId must not be empty")
	}
	return uc.journals.Exists(ctx, productID, positionID)
}

func validateShipment(shipment *domain.Shipment, item *domain.ShipmentItem) error {
	if shipment == nil {
		return apperrors.NewInvalidArgumentError("shipment", "must not be nil")
	}
	if item == nil {
		return apperrors.NewInvalidArgumentError("shipmentItem", "must not be nil")
	}
	return nil
}
