package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type NewBidInput struct {
	CustomerID  string
	ProductID   string
	StoreID     string
	WarehouseID string
	Language    string
	Amount      decimal.Decimal
}

type NewBidRequest struct {
	CustomerID  string          `json:"customerId"`
	StoreID     string          `json:"storeId"`
	WarehouseID string          `json:"warehouseId"`
	Language    string          `json:"language"`
	Amount      decimal.Decimal `json:"amount"`
}

type AuctionEndedRequest struct {
	Ended      bool `json:"ended"`
	SetEndDate bool `json:"setEndDate"`
}

type AssignOrderRequest struct {
	OrderID string `json:"orderId"`
}

type BidResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	CustomerID  string          `json:"customerId"`
	StoreID     string          `json:"storeId"`
	WarehouseID string          `json:"warehouseId"`
	OrderID     string          `json:"orderId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Bin         bool            `json:"bin"`
	Date        time.Time       `json:"date"`
}

type BidPageResponse struct {
	Items      []BidResponse `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int           `json:"totalCount"`
}

type AuctionToEndResponse struct {
	ProductID               string          `json:"productId"`
	Name                    string          `json:"name"`
	HighestBid              decimal.Decimal `json:"highestBid"`
	HighestBidder           string          `json:"highestBidder"`
	AvailableEndDateTimeUtc *time.Time      `json:"availableEndDateTimeUtc"`
}
