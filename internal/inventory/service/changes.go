package service

import (
	"slices"

	"stockroom/internal/domain"
)

type CombinationWarehouse struct {
	CombinationID string
	WarehouseID   string
}

// Changes records which rows of one product an in-memory mutation touched,
// together with the events it produced. Use cases persist exactly the marked
// rows and dispatch the events once the transaction commits.
type Changes struct {
	// Stock marks the product's aggregate stockQuantity / reservedQuantity.
	Stock bool
	// State marks lowStock, disableBuyButton and published.
	State                 bool
	Warehouses            []string
	Combinations          []string
	CombinationWarehouses []CombinationWarehouse
	Events                []domain.Event
}

func (c *Changes) Dirty() bool {
	return c.Stock || c.State || len(c.Warehouses) > 0 || len(c.Combinations) > 0 || len(c.CombinationWarehouses) > 0
}

func (c *Changes) markStock() {
	if c != nil {
		c.Stock = true
	}
}

func (c *Changes) markState() {
	if c != nil {
		c.State = true
	}
}

func (c *Changes) markWarehouse(warehouseID string) {
	if c != nil && !slices.Contains(c.Warehouses, warehouseID) {
		c.Warehouses = append(c.Warehouses, warehouseID)
	}
}

func (c *Changes) markCombination(combinationID string) {
	if c != nil && !slices.Contains(c.Combinations, combinationID) {
		c.Combinations = append(c.Combinations, combinationID)
	}
}

func (c *Changes) markCombinationWarehouse(combinationID, warehouseID string) {
	key := CombinationWarehouse{CombinationID: combinationID, WarehouseID: warehouseID}
	if c != nil && !slices.Contains(c.CombinationWarehouses, key) {
		c.CombinationWarehouses = append(c.CombinationWarehouses, key)
	}
}

func (c *Changes) emit(e domain.Event) {
	if c != nil {
		c.Events = append(c.Events, e)
	}
}

// Merge folds other into c, keeping each marked row once.
func (c *Changes) Merge(other *Changes) {
	if c == nil || other == nil {
		return
	}
	c.Stock = c.Stock || other.Stock
	c.State = c.State || other.State
	for _, w := range other.Warehouses {
		c.markWarehouse(w)
	}
	for _, id := range other.Combinations {
		c.markCombination(id)
	}
	for _, cw := range other.CombinationWarehouses {
		c.markCombinationWarehouse(cw.CombinationID, cw.WarehouseID)
	}
	c.Events = append(c.Events, other.Events...)
}
