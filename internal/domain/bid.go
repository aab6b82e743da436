package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is one auction bid. An empty OrderID means the bid has not been turned
// into an order yet.
type Bid struct {
	ID          string          `db:"id"`
	ProductID   string          `db:"productId"`
	CustomerID  string          `db:"customerId"`
	StoreID     string          `db:"storeId"`
	WarehouseID string          `db:"warehouseId"`
	OrderID     string          `db:"orderId"`
	Amount      decimal.Decimal `db:"amount"`
	Bin         bool            `db:"bin"`
	Date        time.Time       `db:"date"`
}
