package dto

import "stockroom/internal/domain"

type PlaceOrderRequest struct {
	ID          string           `json:"id"`
	CustomerID  string           `json:"customerId"`
	StoreID     string           `json:"storeId"`
	WarehouseID string           `json:"warehouseId"`
	Items       []OrderItemInput `json:"items"`
}

type OrderItemInput struct {
	ID          string                  `json:"id"`
	ProductID   string                  `json:"productId"`
	Quantity    int                     `json:"quantity"`
	WarehouseID string                  `json:"warehouseId"`
	Attributes  domain.CustomAttributes `json:"attributes"`
}

// ToOrder maps the request onto a pending order.
func (r PlaceOrderRequest) ToOrder() *domain.Order {
	order := &domain.Order{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		StoreID:     r.StoreID,
		WarehouseID: r.WarehouseID,
		Status:      domain.OrderStatusPending,
		Items:       make([]domain.OrderItem, len(r.Items)),
	}
	for i, item := range r.Items {
		order.Items[i] = domain.OrderItem{
			ID:          item.ID,
			OrderID:     r.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			WarehouseID: item.WarehouseID,
			Attributes:  item.Attributes,
		}
	}
	return order
}
