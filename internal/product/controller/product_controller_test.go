package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/dto"
)

type mockSearchUseCase struct {
	SearchProductsFunc func(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error)
}

func (m *mockSearchUseCase) SearchProducts(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error) {
	return m.SearchProductsFunc(ctx, req)
}

func serve(uc *mockSearchUseCase, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/products", NewController(uc, zap.NewNop()).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/search", strings.NewReader(body)))
	return rec
}

func TestHandleSearchProducts_Success(t *testing.T) {
	uc := &mockSearchUseCase{SearchProductsFunc: func(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error) {
		assert.Equal(t, "W1", req.WarehouseID)
		return &dto.SearchProductsResponse{
			Products: []dto.ProductDTO{{ID: "p-1", AvailableQuantity: 6}},
			NotFound: []string{"p-2"},
		}, nil
	}}

	rec := serve(uc, `{"productIds":["p-1","p-2"],"warehouseId":"W1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.SearchProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Products[0].AvailableQuantity)
	assert.Equal(t, []string{"p-2"}, resp.NotFound)
}

func TestHandleSearchProducts_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{"},
		{name: "empty ids", body: `{"productIds":[]}`},
		{name: "blank id", body: `{"productIds":["p-1",""]}`},
		{name: "too many ids", body: `{"productIds":[` + strings.Repeat(`"p",`, 100) + `"p"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&mockSearchUseCase{}, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleSearchProducts_InternalError(t *testing.T) {
	uc := &mockSearchUseCase{SearchProductsFunc: func(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error) {
		return nil, errors.New("connection refused")
	}}

	rec := serve(uc, `{"productIds":["p-1"]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
