package usecase

import (
	"context"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	invservice "stockroom/internal/inventory/service"
)

type Service interface {
	GetProductsByIDs(ctx context.Context, ids []string) (found []domain.Product, notFoundIDs []string, err error)
}

type StockMessageFormatter interface {
	FormatStockMessage(p *domain.Product, q invservice.StockQuery, attrs domain.CustomAttributes, lang string) string
}

type SearchUseCase struct {
	service   Service
	formatter StockMessageFormatter
}

func NewSearchUseCase(service Service, formatter StockMessageFormatter) *SearchUseCase {
	return &SearchUseCase{service: service, formatter: formatter}
}

// SearchProducts returns the requested products with their availability in
// the given warehouse, or across all warehouses when none is given.
func (uc *SearchUseCase) SearchProducts(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error) {
	found, notFoundIDs, err := uc.service.GetProductsByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, err
	}

	query := invservice.StockQuery{WarehouseID: req.WarehouseID, Total: req.WarehouseID == ""}

	products := make([]dto.ProductDTO, 0, len(found))
	for i := range found {
		p := &found[i]
		products = append(products, dto.ProductDTO{
			ID:                p.ID,
			Name:              p.Name,
			ProductType:       int(p.ProductType),
			StockQuantity:     p.StockQuantity,
			ReservedQuantity:  p.ReservedQuantity,
			AvailableQuantity: invservice.TotalStockQuantity(p, query),
			StockMessage:      uc.formatter.FormatStockMessage(p, query, nil, req.Language),
			Published:         p.Published,
			DisableBuyButton:  p.DisableBuyButton,
			LowStock:          p.LowStock,
			HighestBid:        p.HighestBid,
			AuctionEnded:      p.AuctionEnded,
		})
	}

	if notFoundIDs == nil {
		notFoundIDs = []string{}
	}

	return &dto.SearchProductsResponse{
		Products: products,
		NotFound: notFoundIDs,
	}, nil
}
