package service

import "stockroom/internal/domain"

// StockQuery scopes a stock lookup. The zero value asks for the available
// quantity (stock minus reserved) wherever the product is stocked.
type StockQuery struct {
	WarehouseID    string
	IgnoreReserved bool
	// Total sums every warehouse row of a multi-warehouse product instead of
	// reading the row for WarehouseID.
	Total bool
}

// TotalStockQuantity returns the stock of a product managed by simple stock.
// Any other inventory method yields 0.
func TotalStockQuantity(p *domain.Product, q StockQuery) int {
	if p == nil || p.ManageInventoryMethod != domain.ManageStock {
		return 0
	}

	if p.UseMultipleWarehouses {
		return warehouseQuantity(p.WarehouseInventory, q)
	}

	if q.WarehouseID != "" && q.WarehouseID != p.WarehouseID {
		return 0
	}

	return quantity(p.StockQuantity, p.ReservedQuantity, q.IgnoreReserved)
}

// CombinationStockQuantity is TotalStockQuantity scoped to one attribute
// combination of a product managed by attributes.
func CombinationStockQuantity(p *domain.Product, c *domain.AttributeCombination, q StockQuery) int {
	if p == nil || c == nil || p.ManageInventoryMethod != domain.ManageStockByAttributes {
		return 0
	}

	if p.UseMultipleWarehouses {
		return warehouseQuantity(c.WarehouseInventory, q)
	}

	if q.WarehouseID != "" && q.WarehouseID != p.WarehouseID {
		return 0
	}

	return quantity(c.StockQuantity, c.ReservedQuantity, q.IgnoreReserved)
}

// IsLowStock reports whether the product's total availability has reached
// its minimum stock threshold or run out.
func IsLowStock(p *domain.Product) bool {
	available := TotalStockQuantity(p, StockQuery{Total: true})
	return (p.MinStockQuantity > 0 && p.MinStockQuantity >= available) || available <= 0
}

func warehouseQuantity(rows []domain.WarehouseInventory, q StockQuery) int {
	if q.Total {
		total := 0
		for _, r := range rows {
			total += quantity(r.StockQuantity, r.ReservedQuantity, q.IgnoreReserved)
		}
		return total
	}

	for _, r := range rows {
		if r.WarehouseID == q.WarehouseID {
			return quantity(r.StockQuantity, r.ReservedQuantity, q.IgnoreReserved)
		}
	}

	return 0
}

func quantity(stock, reserved int, ignoreReserved bool) int {
	if ignoreReserved {
		return stock
	}
	return stock - reserved
}
