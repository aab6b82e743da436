package domain

import "time"

const JournalObjectShipment = "Shipment"

// InventoryJournal records one shipment-item booking against a product. The
// (ProductID, PositionID) pair is unique.
type InventoryJournal struct {
	ID           string           `db:"id"`
	ObjectType   string           `db:"objectType"`
	ObjectID     string           `db:"objectId"`
	PositionID   string           `db:"positionId"`
	ProductID    string           `db:"productId"`
	WarehouseID  string           `db:"warehouseId"`
	Attributes   CustomAttributes `db:"attributes"`
	Reference    string           `db:"reference"`
	InQty        int              `db:"inQty"`
	OutQty       int              `db:"outQty"`
	CreatedOnUtc time.Time        `db:"createdOnUtc"`
}

type Shipment struct {
	ID             string
	ShipmentNumber int
	OrderID        string
	Items          []ShipmentItem
}

type ShipmentItem struct {
	ID          string
	ProductID   string
	Quantity    int
	WarehouseID string
	Attributes  CustomAttributes
}
