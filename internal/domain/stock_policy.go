package domain

import (
	"fmt"
	"strconv"
)

// StockPolicy is the closed set of inventory strategies a product can follow.
// Only the variants declared in this file implement it.
type StockPolicy interface {
	stockPolicy()
}

type Untracked struct{}

type BySimpleStock struct{}

type ByAttributeCombination struct{}

type ByBundle struct{}

func (Untracked) stockPolicy()              {}
func (BySimpleStock) stockPolicy()          {}
func (ByAttributeCombination) stockPolicy() {}
func (ByBundle) stockPolicy()               {}

func (p Product) StockPolicy() StockPolicy {
	switch p.ManageInventoryMethod {
	case DontManageStock:
		return Untracked{}
	case ManageStock:
		return BySimpleStock{}
	case ManageStockByAttributes:
		return ByAttributeCombination{}
	case ManageStockByBundleProducts:
		return ByBundle{}
	default:
		panic(fmt.Sprintf("unknown manage inventory method %d on product %s", p.ManageInventoryMethod, p.ID))
	}
}

// Journaled reports whether bookings against the product are recorded in the
// inventory journal. Bundles are journaled through their components.
func (p Product) Journaled() bool {
	switch p.StockPolicy().(type) {
	case BySimpleStock, ByAttributeCombination:
		return true
	default:
		return false
	}
}

func (m ManageInventoryMethod) Valid() bool {
	return m >= DontManageStock && m <= ManageStockByBundleProducts
}

// Scan reads a manageInventoryMethodId column and rejects unknown methods, so
// a bad row fails the query instead of reaching StockPolicy.
func (m *ManageInventoryMethod) Scan(src interface{}) error {
	var v int64
	switch s := src.(type) {
	case int64:
		v = s
	case []byte:
		parsed, err := strconv.ParseInt(string(s), 10, 64)
		if err != nil {
			return fmt.Errorf("parsing manage inventory method %q: %w", s, err)
		}
		v = parsed
	default:
		return fmt.Errorf("unsupported manage inventory method value %T", src)
	}

	method := ManageInventoryMethod(v)
	if !method.Valid() {
		return fmt.Errorf("unknown manage inventory method %d", v)
	}
	*m = method
	return nil
}
