package service

import (
	"fmt"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

// BookInventory takes quantity shipped units out of both stock and reserved
// stock. Bundles and untracked products are left alone; their components are
// booked as their own steps.
func (e *Engine) BookInventory(p *domain.Product, quantity int, warehouseID string, attrs domain.CustomAttributes, ch *Changes) error {
	if p == nil {
		return apperrors.NewInvalidArgumentError("product", "must not be nil")
	}
	if quantity <= 0 {
		return apperrors.NewInvalidArgumentError("quantity", "must be positive to book inventory")
	}

	e.moveShipped(p, -quantity, warehouseID, attrs, ch)
	return nil
}

// ReverseInventory puts a journaled booking back, restoring OutQty at the
// granularity the booking was made at.
func (e *Engine) ReverseInventory(p *domain.Product, journal domain.InventoryJournal, ch *Changes) error {
	if p == nil {
		return apperrors.NewInvalidArgumentError("product", "must not be nil")
	}
	if journal.OutQty <= 0 {
		return nil
	}

	e.moveShipped(p, journal.OutQty, journal.WarehouseID, journal.Attributes, ch)
	return nil
}

func (e *Engine) moveShipped(p *domain.Product, delta int, warehouseID string, attrs domain.CustomAttributes, ch *Changes) {
	switch policy := p.StockPolicy().(type) {
	case domain.BySimpleStock:
		if p.UseMultipleWarehouses {
			row := p.WarehouseRow(warehouseID)
			if row == nil {
				return
			}
			shiftRow(row, delta)
			ch.markWarehouse(warehouseID)
			p.SumWarehouses()
		} else {
			p.StockQuantity += delta
			p.ReservedQuantity = clampReserved(p.ReservedQuantity + delta)
		}
		ch.markStock()

	case domain.ByAttributeCombination:
		c := e.parser.FindCombination(p, attrs)
		if c == nil {
			return
		}
		if p.UseMultipleWarehouses {
			row := c.WarehouseRow(warehouseID)
			if row == nil {
				return
			}
			shiftRow(row, delta)
			ch.markCombinationWarehouse(c.ID, warehouseID)
			c.SumWarehouses()
		} else {
			c.StockQuantity += delta
			c.ReservedQuantity = clampReserved(c.ReservedQuantity + delta)
		}
		ch.markCombination(c.ID)
		p.SumCombinations()
		ch.markStock()

	case domain.ByBundle, domain.Untracked:
	default:
		panic(fmt.Sprintf("unhandled stock policy %T", policy))
	}
}

func shiftRow(row *domain.WarehouseInventory, delta int) {
	row.StockQuantity += delta
	row.ReservedQuantity = clampReserved(row.ReservedQuantity + delta)
}
