package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockroom/internal/commons"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

type InventoryUseCase interface {
	AdjustReserved(ctx context.Context, productID string, quantityToChange int, attrs domain.CustomAttributes, warehouseID string) error
	SetStockQuantity(ctx context.Context, productID string, stockQuantity int, warehouseID string, publishStockEvent bool) error
}

type BookingUseCase interface {
	BookReservedInventory(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) error
	ReverseBookedInventory(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) error
	CheckExistsInventoryJournal(ctx context.Context, productID, positionID string) (bool, error)
}

type InventoryController struct {
	inventory InventoryUseCase
	booking   BookingUseCase
	logger    *zap.Logger
}

func NewInventoryController(inventory InventoryUseCase, booking BookingUseCase, logger *zap.Logger) *InventoryController {
	return &InventoryController{
		inventory: inventory,
		booking:   booking,
		logger:    logger,
	}
}

func (c *InventoryController) Routes(r chi.Router) {
	r.Post("/products/{productId}/reserved", c.AdjustReserved)
	r.Put("/products/{productId}/stock", c.SetStock)
	r.Post("/shipments/{shipmentId}/bookings", c.BookShipmentItem)
	r.Delete("/shipments/{shipmentId}/bookings/{itemId}", c.ReverseShipmentItem)
	r.Get("/journal", c.CheckJournal)
}

func (c *InventoryController) AdjustReserved(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	productID := chi.URLParam(r, "productId")

	var req dto.AdjustReservedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("invalid JSON body", zap.String("traceId", traceID), zap.Error(err))
		commons.WriteValidationError(w, traceID, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.Quantity == 0 {
		commons.WriteValidationError(w, traceID, "validation failed", c.logger, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must not be zero",
		})
		return
	}

	if err := c.inventory.AdjustReserved(r.Context(), productID, req.Quantity, req.Attributes, req.WarehouseID); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *InventoryController) SetStock(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	productID := chi.URLParam(r, "productId")

	var req dto.SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		commons.WriteValidationError(w, traceID, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.StockQuantity < 0 {
		commons.WriteValidationError(w, traceID, "validation failed", c.logger, apperrors.ValidationDetail{
			Field:   "stockQuantity",
			Message: "stockQuantity must be non-negative",
		})
		return
	}

	if err := c.inventory.SetStockQuantity(r.Context(), productID, req.StockQuantity, req.WarehouseID, req.PublishStockEvent); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *InventoryController) BookShipmentItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var req dto.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		commons.WriteValidationError(w, traceID, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := validateBookingRequest(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}

	item := &domain.ShipmentItem{
		ID:          req.Item.ID,
		ProductID:   req.Item.ProductID,
		Quantity:    req.Item.Quantity,
		WarehouseID: req.Item.WarehouseID,
		Attributes:  req.Item.Attributes,
	}
	shipment := &domain.Shipment{
		ID:             chi.URLParam(r, "shipmentId"),
		ShipmentNumber: req.ShipmentNumber,
		OrderID:        req.OrderID,
		Items:          []domain.ShipmentItem{*item},
	}

	if err := c.booking.BookReservedInventory(r.Context(), shipment, item); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *InventoryController) ReverseShipmentItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	shipment := &domain.Shipment{ID: chi.URLParam(r, "shipmentId")}
	item := &domain.ShipmentItem{ID: chi.URLParam(r, "itemId")}

	if err := c.booking.ReverseBookedInventory(r.Context(), shipment, item); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *InventoryController) CheckJournal(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	productID := r.URL.Query().Get("productId")
	positionID := r.URL.Query().Get("positionId")

	exists, err := c.booking.CheckExistsInventoryJournal(r.Context(), productID, positionID)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.JournalExistsResponse{
		ProductID:  productID,
		PositionID: positionID,
		Exists:     exists,
	}, c.logger)
}

func validateBookingRequest(req dto.BookingRequest) error {
	var details []apperrors.ValidationDetail

	if req.Item.ID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "item.id", Message: "item.id is required"})
	}
	if req.Item.ProductID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "item.productId", Message: "item.productId is required"})
	}
	if req.Item.Quantity < 1 {
		details = append(details, apperrors.ValidationDetail{Field: "item.quantity", Message: "item.quantity must be a positive integer"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
