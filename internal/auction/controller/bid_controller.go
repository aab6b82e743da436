package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockroom/internal/commons"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

type BidUseCase interface {
	NewBid(ctx context.Context, input dto.NewBidInput) (*domain.Bid, error)
	DeleteBid(ctx context.Context, bidID string) error
	CancelBidByOrder(ctx context.Context, orderID string) error
	UpdateAuctionEnded(ctx context.Context, productID string, ended, setEndDate bool) error
	AssignOrder(ctx context.Context, bidID, orderID string) error
	GetAuctionsToEnd(ctx context.Context) ([]domain.Product, error)
	GetBid(ctx context.Context, bidID string) (*domain.Bid, error)
	GetLatestBid(ctx context.Context, productID string) (*domain.Bid, error)
	GetBidsByProductID(ctx context.Context, productID string, page, pageSize int) ([]domain.Bid, int, error)
	GetBidsByCustomerID(ctx context.Context, customerID string) ([]domain.Bid, error)
}

type BidController struct {
	useCase BidUseCase
	logger  *zap.Logger
}

func NewBidController(useCase BidUseCase, logger *zap.Logger) *BidController {
	return &BidController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *BidController) Routes(r chi.Router) {
	r.Get("/due", c.AuctionsToEnd)
	r.Put("/products/{productId}/ended", c.UpdateAuctionEnded)
	r.Post("/products/{productId}/bids", c.PlaceBid)
	r.Get("/products/{productId}/bids", c.ProductBids)
	r.Get("/products/{productId}/bids/latest", c.LatestBid)
	r.Get("/bids/{bidId}", c.GetBid)
	r.Delete("/bids/{bidId}", c.DeleteBid)
	r.Put("/bids/{bidId}/order", c.AssignOrder)
	r.Delete("/orders/{orderId}/bid", c.CancelByOrder)
	r.Get("/customers/{customerId}/bids", c.CustomerBids)
}

func (c *BidController) PlaceBid(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var req dto.NewBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		commons.WriteValidationError(w, traceID, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	var details []apperrors.ValidationDetail
	if req.CustomerID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customerId", Message: "customerId is required"})
	}
	if !req.Amount.IsPositive() {
		details = append(details, apperrors.ValidationDetail{Field: "amount", Message: "amount must be positive"})
	}
	if len(details) > 0 {
		commons.WriteValidationError(w, traceID, "validation failed", c.logger, details...)
		return
	}

	bid, err := c.useCase.NewBid(r.Context(), dto.NewBidInput{
		CustomerID:  req.CustomerID,
		ProductID:   chi.URLParam(r, "productId"),
		StoreID:     req.StoreID,
		WarehouseID: req.WarehouseID,
		Language:    req.Language,
		Amount:      req.Amount,
	})
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, toBidResponse(*bid), c.logger)
}

func (c *BidController) ProductBids(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)

	bids, total, err := c.useCase.GetBidsByProductID(r.Context(), chi.URLParam(r, "productId"), page, pageSize)
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.BidPageResponse{
		Items:      toBidResponses(bids),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}, c.logger)
}

func (c *BidController) LatestBid(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	bid, err := c.useCase.GetLatestBid(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, toBidResponse(*bid), c.logger)
}

func (c *BidController) GetBid(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	bid, err := c.useCase.GetBid(r.Context(), chi.URLParam(r, "bidId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, toBidResponse(*bid), c.logger)
}

func (c *BidController) DeleteBid(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	if err := c.useCase.DeleteBid(r.Context(), chi.URLParam(r, "bidId")); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *BidController) AssignOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var req dto.AssignOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		commons.WriteValidationError(w, traceID, "validation failed", c.logger, apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId is required",
		})
		return
	}

	if err := c.useCase.AssignOrder(r.Context(), chi.URLParam(r, "bidId"), req.OrderID); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *BidController) CancelByOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	if err := c.useCase.CancelBidByOrder(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *BidController) CustomerBids(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	bids, err := c.useCase.GetBidsByCustomerID(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, toBidResponses(bids), c.logger)
}

func (c *BidController) AuctionsToEnd(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	products, err := c.useCase.GetAuctionsToEnd(r.Context())
	if err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	resp := make([]dto.AuctionToEndResponse, len(products))
	for i, p := range products {
		resp[i] = dto.AuctionToEndResponse{
			ProductID:               p.ID,
			Name:                    p.Name,
			HighestBid:              p.HighestBid,
			HighestBidder:           p.HighestBidder,
			AvailableEndDateTimeUtc: p.AvailableEndDateTimeUtc,
		}
	}

	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *BidController) UpdateAuctionEnded(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var req dto.AuctionEndedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		commons.WriteValidationError(w, traceID, "invalid JSON body", c.logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.useCase.UpdateAuctionEnded(r.Context(), chi.URLParam(r, "productId"), req.Ended, req.SetEndDate); err != nil {
		commons.WriteError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func toBidResponse(b domain.Bid) dto.BidResponse {
	return dto.BidResponse{
		ID:          b.ID,
		ProductID:   b.ProductID,
		CustomerID:  b.CustomerID,
		StoreID:     b.StoreID,
		WarehouseID: b.WarehouseID,
		OrderID:     b.OrderID,
		Amount:      b.Amount,
		Bin:         b.Bin,
		Date:        b.Date,
	}
}

func toBidResponses(bids []domain.Bid) []dto.BidResponse {
	out := make([]dto.BidResponse, len(bids))
	for i, b := range bids {
		out[i] = toBidResponse(b)
	}
	return out
}
