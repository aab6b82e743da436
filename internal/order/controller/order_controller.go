package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockroom/internal/commons"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, order *domain.Order) (*dto.ReservationResult, error)
	ReserveOrder(ctx context.Context, orderID string) (*dto.ReservationResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type OrderController struct {
	useCase OrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) Routes(r chi.Router) {
	r.Post("/", c.PlaceOrder)
	r.Get("/{orderId}", c.GetOrder)
	r.Post("/{orderId}/reservation", c.ReserveOrder)
	r.Post("/{orderId}/cancellation", c.CancelOrder)
}

func (c *OrderController) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteValidationError(w, traceID, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := c.useCase.PlaceOrder(r.Context(), req.ToOrder())
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	c.writeReservationResponse(w, traceID, result, logger)
}

func (c *OrderController) ReserveOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	result, err := c.useCase.ReserveOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	c.writeReservationResponse(w, traceID, result, logger)
}

func (c *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	if err := c.useCase.CancelOrder(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		commons.WriteError(w, traceID, err, c.logger.With(zap.String("traceId", traceID)))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	order, err := c.useCase.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger.With(zap.String("traceId", traceID)))
		return
	}

	items := make([]dto.OrderItemView, len(order.Items))
	for i, item := range order.Items {
		items[i] = dto.OrderItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Reserved:  item.Reserved,
		}
	}

	commons.WriteJSON(w, http.StatusOK, dto.OrderResponse{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		StoreID:     order.StoreID,
		WarehouseID: order.WarehouseID,
		Status:      order.Status,
		Items:       items,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, c.logger)
}

func (c *OrderController) writeReservationResponse(w http.ResponseWriter, traceID string, result *dto.ReservationResult, logger *zap.Logger) {
	successes := make([]dto.ItemSuccessDTO, len(result.Successes))
	reservedItems := make([]string, len(result.Successes))
	for i, success := range result.Successes {
		successes[i] = dto.ItemSuccessDTO{
			ItemID:    success.ItemID,
			ProductID: success.ProductID,
			Quantity:  success.Quantity,
		}
		reservedItems[i] = success.ItemID
	}

	failures := make([]dto.ItemFailureDTO, len(result.Failures))
	for i, failure := range result.Failures {
		failures[i] = dto.ItemFailureDTO{
			ItemID:    failure.ItemID,
			ProductID: failure.ProductID,
			Quantity:  failure.Quantity,
			Reason:    string(failure.Reason),
		}
	}

	response := dto.ReservationResponse{
		TraceID:       traceID,
		OrderID:       result.OrderID,
		Status:        string(result.Status),
		ReservedItems: reservedItems,
		Successes:     successes,
		Failures:      failures,
		Timestamp:     time.Now().UTC(),
	}

	statusCode := http.StatusOK
	if result.Status == dto.ReservationPartial {
		statusCode = http.StatusPartialContent
	} else if result.Status == dto.ReservationAllFailed {
		statusCode = http.StatusUnprocessableEntity
	}

	commons.WriteJSON(w, statusCode, response, logger)
}
