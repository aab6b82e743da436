package usecase

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/inventory/service"
)

// batch holds the products locked by one transaction and what was done to
// them, in lock order.
type batch struct {
	ids      []string
	products map[string]*domain.Product
	changes  map[string]*service.Changes
	events   []domain.Event
}

// lockBatch locks every product in ascending id order. With skipMissing a
// product deleted since planning is left out instead of failing the batch.
func lockBatch(ctx context.Context, tx sqlx.ExtContext, repo ProductRepository, ids []string, skipMissing bool) (*batch, error) {
	b := &batch{
		products: make(map[string]*domain.Product, len(ids)),
		changes:  make(map[string]*service.Changes, len(ids)),
	}

	for _, id := range ids {
		p, err := repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok && skipMissing {
				continue
			}
			return nil, fmt.Errorf("locking product %s: %w", id, err)
		}
		b.ids = append(b.ids, id)
		b.products[id] = p
		b.changes[id] = &service.Changes{}
	}

	return b, nil
}

func (b *batch) record(productID string, ch *service.Changes) {
	b.changes[productID].Merge(ch)
	b.events = append(b.events, ch.Events...)
}

func (b *batch) emit(e domain.Event) {
	b.events = append(b.events, e)
}

// touched lists the products that produced changes or events.
func (b *batch) touched() []string {
	var ids []string
	for _, id := range b.ids {
		ch := b.changes[id]
		if ch.Dirty() || len(ch.Events) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (b *batch) persist(ctx context.Context, tx sqlx.ExtContext, repo ProductRepository) error {
	for _, id := range b.ids {
		if err := persistChanges(ctx, tx, repo, b.products[id], b.changes[id]); err != nil {
			return err
		}
	}
	return nil
}

// persistChanges writes exactly the rows marked in ch, one row per statement.
func persistChanges(ctx context.Context, tx sqlx.ExtContext, repo ProductRepository, p *domain.Product, ch *service.Changes) error {
	for _, warehouseID := range ch.Warehouses {
		row := p.WarehouseRow(warehouseID)
		if row == nil {
			continue
		}
		if err := repo.UpdateWarehouseInventory(ctx, tx, p.ID, *row); err != nil {
			return err
		}
	}

	for _, cw := range ch.CombinationWarehouses {
		c := p.Combination(cw.CombinationID)
		if c == nil {
			continue
		}
		row := c.WarehouseRow(cw.WarehouseID)
		if row == nil {
			continue
		}
		if err := repo.UpdateCombinationWarehouseInventory(ctx, tx, c.ID, *row); err != nil {
			return err
		}
	}

	for _, id := range ch.Combinations {
		c := p.Combination(id)
		if c == nil {
			continue
		}
		if err := repo.UpdateCombinationStock(ctx, tx, *c); err != nil {
			return err
		}
	}

	if ch.Stock {
		if err := repo.UpdateStock(ctx, tx, p.ID, p.StockQuantity, p.ReservedQuantity); err != nil {
			return err
		}
	}

	if ch.State {
		if err := repo.UpdateLowStockState(ctx, tx, p); err != nil {
			return err
		}
	}

	return nil
}
