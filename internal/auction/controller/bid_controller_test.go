package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

type mockBidUseCase struct {
	NewBidFunc              func(ctx context.Context, input dto.NewBidInput) (*domain.Bid, error)
	DeleteBidFunc           func(ctx context.Context, bidID string) error
	CancelBidByOrderFunc    func(ctx context.Context, orderID string) error
	UpdateAuctionEndedFunc  func(ctx context.Context, productID string, ended, setEndDate bool) error
	AssignOrderFunc         func(ctx context.Context, bidID, orderID string) error
	GetAuctionsToEndFunc    func(ctx context.Context) ([]domain.Product, error)
	GetBidFunc              func(ctx context.Context, bidID string) (*domain.Bid, error)
	GetLatestBidFunc        func(ctx context.Context, productID string) (*domain.Bid, error)
	GetBidsByProductIDFunc  func(ctx context.Context, productID string, page, pageSize int) ([]domain.Bid, int, error)
	GetBidsByCustomerIDFunc func(ctx context.Context, customerID string) ([]domain.Bid, error)
}

func (m *mockBidUseCase) NewBid(ctx context.Context, input dto.NewBidInput) (*domain.Bid, error) {
	return m.NewBidFunc(ctx, input)
}

func (m *mockBidUseCase) DeleteBid(ctx context.Context, bidID string) error {
	return m.DeleteBidFunc(ctx, bidID)
}

func (m *mockBidUseCase) CancelBidByOrder(ctx context.Context, orderID string) error {
	return m.CancelBidByOrderFunc(ctx, orderID)
}

func (m *mockBidUseCase) UpdateAuctionEnded(ctx context.Context, productID string, ended, setEndDate bool) error {
	return m.UpdateAuctionEndedFunc(ctx, productID, ended, setEndDate)
}

func (m *mockBidUseCase) AssignOrder(ctx context.Context, bidID, orderID string) error {
	return m.AssignOrderFunc(ctx, bidID, orderID)
}

func (m *mockBidUseCase) GetAuctionsToEnd(ctx context.Context) ([]domain.Product, error) {
	return m.GetAuctionsToEndFunc(ctx)
}

func (m *mockBidUseCase) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	return m.GetBidFunc(ctx, bidID)
}

func (m *mockBidUseCase) GetLatestBid(ctx context.Context, productID string) (*domain.Bid, error) {
	return m.GetLatestBidFunc(ctx, productID)
}

func (m *mockBidUseCase) GetBidsByProductID(ctx context.Context, productID string, page, pageSize int) ([]domain.Bid, int, error) {
	return m.GetBidsByProductIDFunc(ctx, productID, page, pageSize)
}

func (m *mockBidUseCase) GetBidsByCustomerID(ctx context.Context, customerID string) ([]domain.Bid, error) {
	return m.GetBidsByCustomerIDFunc(ctx, customerID)
}

func serve(uc *mockBidUseCase, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/auctions", NewBidController(uc, zap.NewNop()).Routes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPlaceBid_Created(t *testing.T) {
	uc := &mockBidUseCase{
		NewBidFunc: func(ctx context.Context, input dto.NewBidInput) (*domain.Bid, error) {
			assert.Equal(t, "p-1", input.ProductID)
			assert.True(t, decimal.RequireFromString("12.50").Equal(input.Amount))
			return &domain.Bid{ID: "b-1", ProductID: input.ProductID, CustomerID: input.CustomerID, Amount: input.Amount, Date: time.Now()}, nil
		},
	}
	body := `{"customerId":"c-1","storeId":"s-1","language":"en","amount":"12.50"}`

	rec := serve(uc, httptest.NewRequest(http.MethodPost, "/auctions/products/p-1/bids", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.BidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "b-1", resp.ID)
	assert.Equal(t, "c-1", resp.CustomerID)
}

func TestPlaceBid_Validation(t *testing.T) {
	rec := serve(&mockBidUseCase{}, httptest.NewRequest(http.MethodPost, "/auctions/products/p-1/bids", strings.NewReader(`{"amount":0}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceBid_AuctionEnded(t *testing.T) {
	uc := &mockBidUseCase{
		NewBidFunc: func(ctx context.Context, input dto.NewBidInput) (*domain.Bid, error) {
			return nil, apperrors.NewConflictError("auction for product p-1 has ended")
		},
	}

	rec := serve(uc, httptest.NewRequest(http.MethodPost, "/auctions/products/p-1/bids", strings.NewReader(`{"customerId":"c-1","amount":5}`)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProductBids_Paging(t *testing.T) {
	uc := &mockBidUseCase{
		GetBidsByProductIDFunc: func(ctx context.Context, productID string, page, pageSize int) ([]domain.Bid, int, error) {
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, pageSize)
			return []domain.Bid{{ID: "b-6"}}, 6, nil
		},
	}

	rec := serve(uc, httptest.NewRequest(http.MethodGet, "/auctions/products/p-1/bids?page=2&pageSize=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.BidPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.TotalCount)
	assert.Len(t, resp.Items, 1)
}

func TestCancelByOrder(t *testing.T) {
	var got string
	uc := &mockBidUseCase{
		CancelBidByOrderFunc: func(ctx context.Context, orderID string) error {
			got = orderID
			return nil
		},
	}

	rec := serve(uc, httptest.NewRequest(http.MethodDelete, "/auctions/orders/o-9/bid", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "o-9", got)
}

func TestLatestBid_NotFound(t *testing.T) {
	uc := &mockBidUseCase{
		GetLatestBidFunc: func(ctx context.Context, productID string) (*domain.Bid, error) {
			return nil, apperrors.NewNotFoundError("no bids for product " + productID)
		},
	}

	rec := serve(uc, httptest.NewRequest(http.MethodGet, "/auctions/products/p-1/bids/latest", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
