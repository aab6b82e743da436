package domain

import "github.com/shopspring/decimal"

// Event is a side effect produced by a business operation. Use cases collect
// events while a transaction is open and hand them to a dispatcher only after
// commit.
type Event interface {
	EventName() string
	AggregateID() string
}

const (
	EntityProduct = "Product"
	EntityBid     = "Bid"
	EntityJournal = "InventoryJournal"
)

type EntityInserted struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

type EntityUpdated struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

type EntityDeleted struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

type ProductPublished struct {
	ProductID string `json:"productId"`
}

type ProductUnpublished struct {
	ProductID string `json:"productId"`
}

type StockUpdated struct {
	ProductID        string `json:"productId"`
	StockQuantity    int    `json:"stockQuantity"`
	ReservedQuantity int    `json:"reservedQuantity"`
}

// QuantityBelowStoreOwner asks the store owner to restock. CombinationID is
// set when the threshold was crossed by an attribute combination.
type QuantityBelowStoreOwner struct {
	ProductID     string `json:"productId"`
	CombinationID string `json:"combinationId,omitempty"`
	Available     int    `json:"available"`
}

type OutBidCustomer struct {
	CustomerID string          `json:"customerId"`
	ProductID  string          `json:"productId"`
	StoreID    string          `json:"storeId"`
	Language   string          `json:"language"`
	Amount     decimal.Decimal `json:"amount"`
}

// NotifySubscribers tells back-in-stock subscribers the product can be
// ordered again.
type NotifySubscribers struct {
	ProductID string `json:"productId"`
}

func (e EntityInserted) EventName() string   { return "EntityInserted" }
func (e EntityInserted) AggregateID() string { return e.ID }

func (e EntityUpdated) EventName() string   { return "EntityUpdated" }
func (e EntityUpdated) AggregateID() string { return e.ID }

func (e EntityDeleted) EventName() string   { return "EntityDeleted" }
func (e EntityDeleted) AggregateID() string { return e.ID }

func (e ProductPublished) EventName() string   { return "ProductPublished" }
func (e ProductPublished) AggregateID() string { return e.ProductID }

func (e ProductUnpublished) EventName() string   { return "ProductUnpublished" }
func (e ProductUnpublished) AggregateID() string { return e.ProductID }

func (e StockUpdated) EventName() string   { return "StockUpdated" }
func (e StockUpdated) AggregateID() string { return e.ProductID }

func (e QuantityBelowStoreOwner) EventName() string   { return "QuantityBelowStoreOwner" }
func (e QuantityBelowStoreOwner) AggregateID() string { return e.ProductID }

func (e OutBidCustomer) EventName() string   { return "OutBidCustomer" }
func (e OutBidCustomer) AggregateID() string { return e.ProductID }

func (e NotifySubscribers) EventName() string   { return "NotifySubscribers" }
func (e NotifySubscribers) AggregateID() string { return e.ProductID }

func ProductCacheKey(productID string) string {
	return "stockroom.product.id-" + productID
}

const ProductCachePrefix = "stockroom.product."
