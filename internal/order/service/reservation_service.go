package service

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	invservice "stockroom/internal/inventory/service"
)

type ProductRepository interface {
	FindByID(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Product, error)
}

// InventoryAdjuster reserves (negative quantity) or releases (positive
// quantity) stock for one order line.
type InventoryAdjuster interface {
	AdjustReserved(ctx context.Context, productID string, quantityToChange int, attrs domain.CustomAttributes, warehouseID string) error
}

type OrderItemRepository interface {
	SetReserved(ctx context.Context, id string, reserved bool) error
	// ClaimRelease clears the reserved flag of a line that still has it and
	// reports whether this call did so.
	ClaimRelease(ctx context.Context, id string) (bool, error)
}

type ReservationService struct {
	reader        sqlx.ExtContext
	productRepo   ProductRepository
	inventory     InventoryAdjuster
	orderItemRepo OrderItemRepository
	parser        invservice.AttributeParser
	logger        *zap.Logger
}

func NewReservationService(
	reader sqlx.ExtContext,
	productRepo ProductRepository,
	inventory InventoryAdjuster,
	orderItemRepo OrderItemRepository,
	parser invservice.AttributeParser,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		reader:        reader,
		productRepo:   productRepo,
		inventory:     inventory,
		orderItemRepo: orderItemRepo,
		parser:        parser,
		logger:        logger,
	}
}

// ReserveItems reserves every line of the order that is not reserved yet.
// Lines are processed in product id order. A line that cannot be reserved is
// reported as a failure and does not stop the others.
func (s *ReservationService) ReserveItems(ctx context.Context, order *domain.Order) (*dto.ReservationResult, error) {
	result := &dto.ReservationResult{OrderID: order.ID}

	for _, item := range sortedItems(order.Items) {
		if item.Reserved {
			result.Successes = append(result.Successes, success(item))
			continue
		}

		reason, err := s.checkAvailability(ctx, order, item)
		if err != nil {
			return nil, err
		}
		if reason == "" {
			reason, err = s.reserve(ctx, order, item)
			if err != nil {
				s.logger.Error("reservation error", zap.String("orderId", order.ID), zap.String("productId", item.ProductID), zap.Error(err))
				return nil, err
			}
		}

		if reason != "" {
			result.Failures = append(result.Failures, dto.ItemFailure{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    reason,
			})
			s.logger.Warn("item reservation failed", zap.String("orderId", order.ID), zap.String("productId", item.ProductID), zap.Int("quantity", item.Quantity), zap.String("reason", string(reason)))
			continue
		}

		result.Successes = append(result.Successes, success(item))
		s.logger.Info("item reserved successfully", zap.String("orderId", order.ID), zap.String("productId", item.ProductID), zap.Int("quantity", item.Quantity))
	}

	return result.Finish(), nil
}

func (s *ReservationService) reserve(ctx context.Context, order *domain.Order, item domain.OrderItem) (dto.FailureReason, error) {
	err := s.inventory.AdjustReserved(ctx, item.ProductID, -item.Quantity, item.Attributes, order.LineWarehouse(item))
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return dto.ReasonNotFound, nil
	}
	if _, ok := apperrors.IsInvalidArgumentError(err); ok {
		return dto.ReasonInvalidLine, nil
	}
	if err != nil {
		return "", err
	}

	if err := s.orderItemRepo.SetReserved(ctx, item.ID, true); err != nil {
		return "", err
	}
	return "", nil
}

// ReleaseItems gives back the stock of every reserved line. Each line is
// claimed before its stock is released, so concurrent or repeated releases
// give a line back at most once.
func (s *ReservationService) ReleaseItems(ctx context.Context, order *domain.Order) error {
	for _, item := range sortedItems(order.Items) {
		claimed, err := s.orderItemRepo.ClaimRelease(ctx, item.ID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		err = s.inventory.AdjustReserved(ctx, item.ProductID, item.Quantity, item.Attributes, order.LineWarehouse(item))
		if _, ok := apperrors.IsNotFoundError(err); ok {
			s.logger.Warn("reserved product no longer exists", zap.String("orderId", order.ID), zap.String("productId", item.ProductID))
			err = nil
		}
		if err != nil {
			if markErr := s.orderItemRepo.SetReserved(ctx, item.ID, true); markErr != nil {
				s.logger.Error("failed to restore line reservation", zap.String("orderId", order.ID), zap.String("itemId", item.ID), zap.Error(markErr))
			}
			return err
		}

		s.logger.Info("item reservation released", zap.String("orderId", order.ID), zap.String("productId", item.ProductID), zap.Int("quantity", item.Quantity))
	}
	return nil
}

// checkAvailability rejects lines that obviously cannot be reserved. Products
// that allow backorders, bundles and untracked products always pass.
func (s *ReservationService) checkAvailability(ctx context.Context, order *domain.Order, item domain.OrderItem) (dto.FailureReason, error) {
	if item.Quantity <= 0 {
		return dto.ReasonInvalidLine, nil
	}

	product, err := s.productRepo.FindByID(ctx, s.reader, item.ProductID)
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return dto.ReasonNotFound, nil
	}
	if err != nil {
		return "", err
	}

	if !product.Published {
		return dto.ReasonProductInactive, nil
	}
	if product.BackorderMode == domain.AllowQtyBelowZero {
		return "", nil
	}

	query := invservice.StockQuery{Total: true}
	if product.UseMultipleWarehouses {
		query = invservice.StockQuery{WarehouseID: order.LineWarehouse(item)}
	}

	var available int
	switch product.StockPolicy().(type) {
	case domain.BySimpleStock:
		available = invservice.TotalStockQuantity(product, query)
	case domain.ByAttributeCombination:
		c := s.parser.FindCombination(product, item.Attributes)
		if c == nil || c.AllowOutOfStockOrders {
			return "", nil
		}
		available = invservice.CombinationStockQuantity(product, c, query)
	default:
		return "", nil
	}

	switch {
	case available <= 0:
		return dto.ReasonOutOfStock, nil
	case available < item.Quantity:
		return dto.ReasonInsufficientAvailable, nil
	}
	return "", nil
}

func sortedItems(items []domain.OrderItem) []domain.OrderItem {
	sorted := append([]domain.OrderItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func success(item domain.OrderItem) dto.ItemSuccess {
	return dto.ItemSuccess{ItemID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity}
}
