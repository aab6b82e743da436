package dto

import "github.com/shopspring/decimal"

type SearchProductsRequest struct {
	ProductIDs  []string `json:"productIds"`
	WarehouseID string   `json:"warehouseId"`
	Language    string   `json:"language"`
}

type SearchProductsResponse struct {
	Products []ProductDTO `json:"products"`
	NotFound []string     `json:"notFound"`
}

type ProductDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	ProductType       int             `json:"productType"`
	StockQuantity     int             `json:"stockQuantity"`
	ReservedQuantity  int             `json:"reservedQuantity"`
	AvailableQuantity int             `json:"availableQuantity"`
	StockMessage      string          `json:"stockMessage"`
	Published         bool            `json:"published"`
	DisableBuyButton  bool            `json:"disableBuyButton"`
	LowStock          bool            `json:"lowStock"`
	HighestBid        decimal.Decimal `json:"highestBid"`
	AuctionEnded      bool            `json:"auctionEnded"`
}
