package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

const (
	defaultTxTimeout = 5 * time.Second
	maxOrderItems    = 100
	maxItemQuantity  = 10000
)

var tracer = otel.Tracer("stockroom/order")

// OrderUseCase drives the stock side of an order's life: lines are reserved
// when the order is placed and released when it is cancelled.
type OrderUseCase struct {
	txManager      TransactionManager
	orderRepo      OrderRepository
	orderItemRepo  OrderItemRepository
	reservationSvc StockReservationService
	bids           BidCanceler
	logger         *zap.Logger
	cfg            config.InventoryConfig
	now            func() time.Time
}

func NewOrderUseCase(
	txManager TransactionManager,
	orderRepo OrderRepository,
	orderItemRepo OrderItemRepository,
	reservationSvc StockReservationService,
	bids BidCanceler,
	logger *zap.Logger,
	cfg config.InventoryConfig,
) *OrderUseCase {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = defaultTxTimeout
	}
	return &OrderUseCase{
		txManager:      txManager,
		orderRepo:      orderRepo,
		orderItemRepo:  orderItemRepo,
		reservationSvc: reservationSvc,
		bids:           bids,
		logger:         logger,
		cfg:            cfg,
		now:            time.Now,
	}
}

// PlaceOrder stores a pending order with its lines and reserves them. Placing
// an order that already exists only retries the reservation.
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, order *domain.Order) (result *dto.ReservationResult, err error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "OrderUseCase.PlaceOrder", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
	))
	defer func() { endSpan(span, err) }()

	uc.logger.Info("place order started", zap.String("orderId", order.ID), zap.Int("itemCount", len(order.Items)))

	inserted, err := uc.insertOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if !inserted {
		uc.logger.Info("order already stored", zap.String("orderId", order.ID))
	}

	return uc.ReserveOrder(ctx, order.ID)
}

func (uc *OrderUseCase) insertOrder(ctx context.Context, order *domain.Order) (bool, error) {
	now := uc.now().UTC()
	stored := *order
	stored.Status = domain.OrderStatusPending
	stored.CreatedAt = now
	stored.UpdatedAt = now

	var inserted bool
	err := mysql.RetryOnDeadlock(ctx, uc.logger, uc.cfg.MaxRetryAttempts, "place-order", func(ctx context.Context) error {
		txCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
		defer cancel()

		tx, err := uc.txManager.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		inserted, err = uc.orderRepo.InsertIfAbsent(txCtx, tx, stored)
		if err != nil || !inserted {
			return err
		}

		for _, item := range order.Items {
			item.OrderID = order.ID
			item.Reserved = false
			if err := uc.orderItemRepo.Insert(txCtx, tx, item); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	return inserted, err
}

// ReserveOrder reserves the lines of a pending order. The order becomes
// CREATED when at least one line was reserved and stays PENDING otherwise.
func (uc *OrderUseCase) ReserveOrder(ctx context.Context, orderID string) (result *dto.ReservationResult, err error) {
	ctx, span := tracer.Start(ctx, "OrderUseCase.ReserveOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	order, err := uc.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	claimed, err := uc.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCreated, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperrors.NewConflictError(fmt.Sprintf("order %s is not in PENDING status", orderID))
	}

	result, err = uc.reservationSvc.ReserveItems(ctx, order)
	if err != nil {
		uc.reopen(ctx, orderID)
		return nil, err
	}

	if result.Status == dto.ReservationAllFailed {
		uc.reopen(ctx, orderID)
		uc.logger.Warn("no order line could be reserved", zap.String("orderId", orderID), zap.Int("failureCount", len(result.Failures)))
		return result, nil
	}

	if err := uc.releaseIfCancelled(ctx, orderID); err != nil {
		return nil, err
	}

	uc.logger.Info("order reserved",
		zap.String("orderId", orderID),
		zap.String("status", string(result.Status)),
		zap.Int("successCount", len(result.Successes)),
		zap.Int("failureCount", len(result.Failures)),
	)
	return result, nil
}

// reopen hands a claimed order back to PENDING so the reservation can be
// retried.
func (uc *OrderUseCase) reopen(ctx context.Context, orderID string) {
	if _, err := uc.orderRepo.TransitionStatus(ctx, orderID, domain.OrderStatusCreated, domain.OrderStatusPending, uc.now().UTC()); err != nil {
		uc.logger.Error("failed to reopen order", zap.String("orderId", orderID), zap.Error(err))
	}
}

// releaseIfCancelled gives back what was just reserved when the order was
// cancelled while its lines were being reserved.
func (uc *OrderUseCase) releaseIfCancelled(ctx context.Context, orderID string) error {
	current, err := uc.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if current.Status != domain.OrderStatusCanceled {
		return nil
	}

	uc.logger.Warn("order cancelled during reservation", zap.String("orderId", orderID))
	if err := uc.reservationSvc.ReleaseItems(ctx, current); err != nil {
		return err
	}
	return apperrors.NewConflictError(fmt.Sprintf("order %s was cancelled", orderID))
}

// CancelOrder releases every reserved line of the order and reopens the
// auction the order was won from. Cancelling twice is a no-op.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) (err error) {
	if orderID == "" {
		return apperrors.NewInvalidArgumentError("orderId", "must not be empty")
	}

	ctx, span := tracer.Start(ctx, "OrderUseCase.CancelOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	order, err := uc.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status != domain.OrderStatusCanceled {
		moved, err := uc.orderRepo.TransitionStatus(ctx, orderID, order.Status, domain.OrderStatusCanceled, uc.now().UTC())
		if err != nil {
			return err
		}
		if !moved {
			return apperrors.NewConflictError(fmt.Sprintf("order %s changed status concurrently", orderID))
		}
	}

	if err := uc.reservationSvc.ReleaseItems(ctx, order); err != nil {
		uc.logger.Error("failed to release order lines", zap.String("orderId", orderID), zap.Error(err))
		return err
	}

	if err := uc.bids.CancelBidByOrder(ctx, orderID); err != nil {
		return err
	}

	uc.logger.Info("order cancelled", zap.String("orderId", orderID))
	return nil
}

// GetOrder loads an order with its lines.
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, apperrors.NewInvalidArgumentError("orderId", "must not be empty")
	}

	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Items, err = uc.orderItemRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ValidateOrder checks an incoming order before anything is stored.
func ValidateOrder(order *domain.Order) error {
	if order == nil {
		return apperrors.NewInvalidArgumentError("order", "must not be nil")
	}

	var details []apperrors.ValidationDetail

	if order.ID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "id", Message: "id is required"})
	}

	if len(order.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "items must not be empty"})
	}

	if len(order.Items) > maxOrderItems {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds maximum of " + strconv.Itoa(maxOrderItems),
		})
	}

	itemIDs := make(map[string]bool)

	for idx, item := range order.Items {
		field := "items[" + strconv.Itoa(idx) + "]"

		if item.ID == "" {
			details = append(details, apperrors.ValidationDetail{Field: field + ".id", Message: "id is required"})
		} else if itemIDs[item.ID] {
			details = append(details, apperrors.ValidationDetail{Field: field + ".id", Message: "id must not be duplicated"})
		}
		itemIDs[item.ID] = true

		if item.ProductID == "" {
			details = append(details, apperrors.ValidationDetail{Field: field + ".productId", Message: "productId is required"})
		}

		if item.Quantity < 1 || item.Quantity > maxItemQuantity {
			details = append(details, apperrors.ValidationDetail{
				Field:   field + ".quantity",
				Message: "quantity must be between 1 and " + strconv.Itoa(maxItemQuantity),
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
