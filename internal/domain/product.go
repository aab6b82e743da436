package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType int

const (
	ProductTypeSimple  ProductType = 5
	ProductTypeGrouped ProductType = 10
	ProductTypeAuction ProductType = 20
	ProductTypeBundle  ProductType = 30
)

type ManageInventoryMethod int

const (
	DontManageStock             ManageInventoryMethod = 0
	ManageStock                 ManageInventoryMethod = 1
	ManageStockByAttributes     ManageInventoryMethod = 2
	ManageStockByBundleProducts ManageInventoryMethod = 3
)

type LowStockActivity int

const (
	LowStockActivityNone             LowStockActivity = 0
	LowStockActivityDisableBuyButton LowStockActivity = 1
	LowStockActivityUnpublish        LowStockActivity = 2
)

type BackorderMode int

const (
	NoBackorders      BackorderMode = 0
	AllowQtyBelowZero BackorderMode = 1
)

// Product is the root aggregate for every inventory mutation. Warehouse rows,
// attribute combinations, bundle components and attribute values are owned by
// it and loaded together with the product row.
type Product struct {
	ID                          string                `db:"id"`
	Name                        string                `db:"name"`
	ProductType                 ProductType           `db:"productTypeId"`
	ManageInventoryMethod       ManageInventoryMethod `db:"manageInventoryMethodId"`
	StockQuantity               int                   `db:"stockQuantity"`
	ReservedQuantity            int                   `db:"reservedQuantity"`
	UseMultipleWarehouses       bool                  `db:"useMultipleWarehouses"`
	WarehouseID                 string                `db:"warehouseId"`
	MinStockQuantity            int                   `db:"minStockQuantity"`
	LowStock                    bool                  `db:"lowStock"`
	LowStockActivity            LowStockActivity      `db:"lowStockActivityId"`
	NotifyAdminForQuantityBelow int                   `db:"notifyAdminForQuantityBelow"`
	BackorderMode               BackorderMode         `db:"backorderModeId"`
	DisableBuyButton            bool                  `db:"disableBuyButton"`
	Published                   bool                  `db:"published"`
	DisplayStockAvailability    bool                  `db:"displayStockAvailability"`
	DisplayStockQuantity        bool                  `db:"displayStockQuantity"`
	AllowOutOfStockOrders       bool                  `db:"allowOutOfStockOrders"`
	HighestBid                  decimal.Decimal       `db:"highestBid"`
	HighestBidder               string                `db:"highestBidder"`
	AuctionEnded                bool                  `db:"auctionEnded"`
	AvailableEndDateTimeUtc     *time.Time            `db:"availableEndDateTimeUtc"`
	UpdatedOnUtc                time.Time             `db:"updatedOnUtc"`

	WarehouseInventory []WarehouseInventory   `db:"-"`
	Combinations       []AttributeCombination `db:"-"`
	BundleProducts     []BundleProduct        `db:"-"`
	AttributeValues    []AttributeValue       `db:"-"`
}

// Available is the raw stock minus reserved quantity at product level. It can
// be negative when backorders are allowed.
func (p Product) Available() int {
	return p.StockQuantity - p.ReservedQuantity
}

// WarehouseRow returns the product's inventory row for warehouseID, or nil
// when the product is not tracked in that warehouse.
func (p *Product) WarehouseRow(warehouseID string) *WarehouseInventory {
	for i := range p.WarehouseInventory {
		if p.WarehouseInventory[i].WarehouseID == warehouseID {
			return &p.WarehouseInventory[i]
		}
	}
	return nil
}

func (p *Product) Combination(id string) *AttributeCombination {
	for i := range p.Combinations {
		if p.Combinations[i].ID == id {
			return &p.Combinations[i]
		}
	}
	return nil
}

// SumWarehouses re-derives the product's aggregate quantities from its
// warehouse rows.
func (p *Product) SumWarehouses() {
	p.StockQuantity, p.ReservedQuantity = sumRows(p.WarehouseInventory)
}

// SumCombinations re-derives the product's aggregate quantities from its
// attribute combinations.
func (p *Product) SumCombinations() {
	stock, reserved := 0, 0
	for _, c := range p.Combinations {
		stock += c.StockQuantity
		reserved += c.ReservedQuantity
	}
	p.StockQuantity = stock
	p.ReservedQuantity = reserved
}

type WarehouseInventory struct {
	WarehouseID      string `db:"warehouseId"`
	StockQuantity    int    `db:"stockQuantity"`
	ReservedQuantity int    `db:"reservedQuantity"`
}

type AttributeCombination struct {
	ID                          string           `db:"id"`
	ProductID                   string           `db:"productId"`
	Attributes                  CustomAttributes `db:"attributes"`
	StockQuantity               int              `db:"stockQuantity"`
	ReservedQuantity            int              `db:"reservedQuantity"`
	NotifyAdminForQuantityBelow int              `db:"notifyAdminForQuantityBelow"`
	AllowOutOfStockOrders       bool             `db:"allowOutOfStockOrders"`

	WarehouseInventory []WarehouseInventory `db:"-"`
}

func (c *AttributeCombination) WarehouseRow(warehouseID string) *WarehouseInventory {
	for i := range c.WarehouseInventory {
		if c.WarehouseInventory[i].WarehouseID == warehouseID {
			return &c.WarehouseInventory[i]
		}
	}
	return nil
}

func (c *AttributeCombination) SumWarehouses() {
	c.StockQuantity, c.ReservedQuantity = sumRows(c.WarehouseInventory)
}

func sumRows(rows []WarehouseInventory) (stock, reserved int) {
	for _, r := range rows {
		stock += r.StockQuantity
		reserved += r.ReservedQuantity
	}
	return stock, reserved
}

type BundleProduct struct {
	BundleProductID string `db:"bundleProductId"`
	ProductID       string `db:"productId"`
	Quantity        int    `db:"quantity"`
	DisplayOrder    int    `db:"displayOrder"`
}

type AttributeValueType int

const (
	AttributeValueSimple              AttributeValueType = 0
	AttributeValueAssociatedToProduct AttributeValueType = 10
)

// AttributeValue is one selectable value of a product attribute mapping.
// Values of type AssociatedToProduct pull stock from another product.
type AttributeValue struct {
	ID                  string             `db:"id"`
	ProductID           string             `db:"productId"`
	AttributeMappingID  string             `db:"attributeMappingId"`
	Name                string             `db:"name"`
	ValueType           AttributeValueType `db:"attributeValueTypeId"`
	AssociatedProductID string             `db:"associatedProductId"`
	Quantity            int                `db:"quantity"`
}
