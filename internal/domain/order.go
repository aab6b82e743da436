package domain

import "time"

// Order is the slice of an order the inventory core needs: its lines and the
// store / warehouse they are fulfilled from.
type Order struct {
	ID          string    `db:"id"`
	CustomerID  string    `db:"customerId"`
	StoreID     string    `db:"storeId"`
	WarehouseID string    `db:"warehouseId"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"createdAt"`
	UpdatedAt   time.Time `db:"updatedAt"`

	Items []OrderItem `db:"-"`
}

// OrderItem is one order line. Reserved is set once its quantity has been
// reserved and cleared when the reservation is released.
type OrderItem struct {
	ID          string           `db:"id"`
	OrderID     string           `db:"orderId"`
	ProductID   string           `db:"productId"`
	Quantity    int              `db:"quantity"`
	WarehouseID string           `db:"warehouseId"`
	Attributes  CustomAttributes `db:"attributes"`
	Reserved    bool             `db:"reserved"`
}

// LineWarehouse is the warehouse a line is fulfilled from, defaulting to the
// order's warehouse.
func (o Order) LineWarehouse(item OrderItem) string {
	if item.WarehouseID != "" {
		return item.WarehouseID
	}
	return o.WarehouseID
}

const (
	OrderStatusPending  = "PENDING"
	OrderStatusCreated  = "CREATED"
	OrderStatusCanceled = "CANCELED"
)
