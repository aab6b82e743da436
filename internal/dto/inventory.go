package dto

import "stockroom/internal/domain"

// AdjustReservedRequest carries a signed quantity: negative reserves stock,
// positive releases it.
type AdjustReservedRequest struct {
	Quantity    int                     `json:"quantity"`
	WarehouseID string                  `json:"warehouseId"`
	Attributes  domain.CustomAttributes `json:"attributes"`
}

type SetStockRequest struct {
	StockQuantity     int    `json:"stockQuantity"`
	WarehouseID       string `json:"warehouseId"`
	PublishStockEvent bool   `json:"publishStockEvent"`
}

type BookingRequest struct {
	ShipmentNumber int                `json:"shipmentNumber"`
	OrderID        string             `json:"orderId"`
	Item           BookingItemRequest `json:"item"`
}

type BookingItemRequest struct {
	ID          string                  `json:"id"`
	ProductID   string                  `json:"productId"`
	Quantity    int                     `json:"quantity"`
	WarehouseID string                  `json:"warehouseId"`
	Attributes  domain.CustomAttributes `json:"attributes"`
}

type JournalExistsResponse struct {
	ProductID  string `json:"productId"`
	PositionID string `json:"positionId"`
	Exists     bool   `json:"exists"`
}
