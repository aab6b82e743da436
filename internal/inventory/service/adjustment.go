package service

import (
	"fmt"

	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

type AttributeParser interface {
	FindCombination(p *domain.Product, attrs domain.CustomAttributes) *domain.AttributeCombination
	ParseValues(p *domain.Product, attrs domain.CustomAttributes) []domain.AttributeValue
}

// Engine applies inventory rules to products already loaded in memory. It
// never touches storage: every mutation is recorded in a Changes value that
// the caller persists.
type Engine struct {
	parser  AttributeParser
	catalog config.CatalogConfig
}

func NewEngine(parser AttributeParser, catalog config.CatalogConfig) *Engine {
	return &Engine{parser: parser, catalog: catalog}
}

// AdjustReserved reserves (negative quantityToChange) or releases (positive)
// stock on a single product. Cascading to bundle components and associated
// products is planned separately by Planner.
func (e *Engine) AdjustReserved(p *domain.Product, quantityToChange int, attrs domain.CustomAttributes, warehouseID string, ch *Changes) error {
	if p == nil {
		return apperrors.NewInvalidArgumentError("product", "must not be nil")
	}
	if quantityToChange == 0 {
		return nil
	}

	switch policy := p.StockPolicy().(type) {
	case domain.BySimpleStock:
		if err := e.adjustSimpleStock(p, quantityToChange, warehouseID, ch); err != nil {
			return err
		}
	case domain.ByAttributeCombination:
		if err := e.adjustCombination(p, quantityToChange, attrs, warehouseID, ch); err != nil {
			return err
		}
	case domain.ByBundle, domain.Untracked:
	default:
		panic(fmt.Sprintf("unhandled stock policy %T", policy))
	}

	ch.emit(domain.EntityUpdated{Entity: domain.EntityProduct, ID: p.ID})
	return nil
}

func (e *Engine) adjustSimpleStock(p *domain.Product, quantityToChange int, warehouseID string, ch *Changes) error {
	prevAvailable := TotalStockQuantity(p, StockQuery{Total: true})

	var err error
	if quantityToChange < 0 {
		err = ReserveInventory(p, quantityToChange, warehouseID, ch)
	} else {
		err = UnblockReservedInventory(p, quantityToChange, warehouseID, ch)
	}
	if err != nil {
		return err
	}

	available := TotalStockQuantity(p, StockQuery{Total: true})

	if quantityToChange < 0 && available <= p.MinStockQuantity {
		applyLowStockActivity(p, ch)
	}

	if e.catalog.PublishBackProductWhenCancellingOrders && quantityToChange > 0 && prevAvailable <= p.MinStockQuantity {
		revertLowStockActivity(p, ch)
	}

	if quantityToChange < 0 && available < p.NotifyAdminForQuantityBelow {
		ch.emit(domain.QuantityBelowStoreOwner{ProductID: p.ID, Available: available})
	}

	return nil
}

func (e *Engine) adjustCombination(p *domain.Product, quantityToChange int, attrs domain.CustomAttributes, warehouseID string, ch *Changes) error {
	if len(attrs) == 0 {
		return nil
	}

	c := e.parser.FindCombination(p, attrs)
	if c == nil {
		return nil
	}

	var err error
	if quantityToChange < 0 {
		err = ReserveInventoryCombination(p, c, quantityToChange, warehouseID, ch)
	} else {
		err = UnblockReservedInventoryCombination(p, c, quantityToChange, warehouseID, ch)
	}
	if err != nil {
		return err
	}

	if quantityToChange < 0 {
		available := CombinationStockQuantity(p, c, StockQuery{Total: true})
		if available < c.NotifyAdminForQuantityBelow {
			ch.emit(domain.QuantityBelowStoreOwner{ProductID: p.ID, CombinationID: c.ID, Available: available})
		}
	}

	return nil
}

func applyLowStockActivity(p *domain.Product, ch *Changes) {
	switch p.LowStockActivity {
	case domain.LowStockActivityDisableBuyButton:
		if p.DisableBuyButton && p.LowStock {
			return
		}
		p.DisableBuyButton = true
		p.LowStock = true
		ch.markState()
	case domain.LowStockActivityUnpublish:
		wasPublished := p.Published
		if !wasPublished && p.LowStock {
			return
		}
		p.Published = false
		p.LowStock = true
		ch.markState()
		if wasPublished {
			ch.emit(domain.ProductUnpublished{ProductID: p.ID})
		}
	}
}

func revertLowStockActivity(p *domain.Product, ch *Changes) {
	switch p.LowStockActivity {
	case domain.LowStockActivityDisableBuyButton:
		p.DisableBuyButton = false
		p.LowStock = IsLowStock(p)
		ch.markState()
	case domain.LowStockActivityUnpublish:
		wasPublished := p.Published
		p.Published = true
		p.LowStock = IsLowStock(p)
		ch.markState()
		if !wasPublished {
			ch.emit(domain.ProductPublished{ProductID: p.ID})
		}
	}
}

// ReserveInventory reserves -quantity units. quantity must be negative. On a
// multi-warehouse product only the row for warehouseID changes; a missing row
// is skipped.
func ReserveInventory(p *domain.Product, quantity int, warehouseID string, ch *Changes) error {
	if p == nil {
		return apperrors.NewInvalidArgumentError("product", "must not be nil")
	}
	if quantity >= 0 {
		return apperrors.NewInvalidArgumentError("quantity", "must be negative to reserve inventory")
	}

	changeReserved(p, -quantity, warehouseID, ch)
	return nil
}

// UnblockReservedInventory releases quantity reserved units. quantity must
// not be negative.
func UnblockReservedInventory(p *domain.Product, quantity int, warehouseID string, ch *Changes) error {
	if p == nil {
		return apperrors.NewInvalidArgumentError("product", "must not be nil")
	}
	if quantity < 0 {
		return apperrors.NewInvalidArgumentError("quantity", "must not be negative to unblock inventory")
	}

	changeReserved(p, -quantity, warehouseID, ch)
	return nil
}

func changeReserved(p *domain.Product, delta int, warehouseID string, ch *Changes) {
	if p.UseMultipleWarehouses {
		row := p.WarehouseRow(warehouseID)
		if row == nil {
			return
		}
		row.ReservedQuantity = clampReserved(row.ReservedQuantity + delta)
		ch.markWarehouse(warehouseID)
		p.SumWarehouses()
		ch.markStock()
		return
	}

	p.ReservedQuantity = clampReserved(p.ReservedQuantity + delta)
	ch.markStock()
}

func ReserveInventoryCombination(p *domain.Product, c *domain.AttributeCombination, quantity int, warehouseID string, ch *Changes) error {
	if p == nil || c == nil {
		return apperrors.NewInvalidArgumentError("combination", "product and combination must not be nil")
	}
	if quantity >= 0 {
		return apperrors.NewInvalidArgumentError("quantity", "must be negative to reserve inventory")
	}

	changeCombinationReserved(p, c, -quantity, warehouseID, ch)
	return nil
}

func UnblockReservedInventoryCombination(p *domain.Product, c *domain.AttributeCombination, quantity int, warehouseID string, ch *Changes) error {
	if p == nil || c == nil {
		return apperrors.NewInvalidArgumentError("combination", "product and combination must not be nil")
	}
	if quantity < 0 {
		return apperrors.NewInvalidArgumentError("quantity", "must not be negative to unblock inventory")
	}

	changeCombinationReserved(p, c, -quantity, warehouseID, ch)
	return nil
}

func changeCombinationReserved(p *domain.Product, c *domain.AttributeCombination, delta int, warehouseID string, ch *Changes) {
	if p.UseMultipleWarehouses {
		row := c.WarehouseRow(warehouseID)
		if row == nil {
			return
		}
		row.ReservedQuantity = clampReserved(row.ReservedQuantity + delta)
		ch.markCombinationWarehouse(c.ID, warehouseID)
		c.SumWarehouses()
	} else {
		c.ReservedQuantity = clampReserved(c.ReservedQuantity + delta)
	}

	ch.markCombination(c.ID)
	p.SumCombinations()
	ch.markStock()
}

func clampReserved(reserved int) int {
	if reserved < 0 {
		return 0
	}
	return reserved
}
