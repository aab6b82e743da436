package dto

import "time"

type ReservationResponse struct {
	TraceID       string           `json:"traceId"`
	OrderID       string           `json:"orderId"`
	Status        string           `json:"status"`
	ReservedItems []string         `json:"reservedItems"`
	Successes     []ItemSuccessDTO `json:"successes"`
	Failures      []ItemFailureDTO `json:"failures"`
	Timestamp     time.Time        `json:"timestamp"`
}

type ItemSuccessDTO struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ItemFailureDTO struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

type OrderResponse struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customerId"`
	StoreID     string          `json:"storeId"`
	WarehouseID string          `json:"warehouseId"`
	Status      string          `json:"status"`
	Items       []OrderItemView `json:"items"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type OrderItemView struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Reserved  bool   `json:"reserved"`
}
