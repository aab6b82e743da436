package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/attribute"
	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

func newTestEngine(publishBack bool) *Engine {
	return NewEngine(attribute.NewParser(), config.CatalogConfig{PublishBackProductWhenCancellingOrders: publishBack})
}

func eventNames(events []domain.Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName())
	}
	return names
}

func TestReserveInventory_SignContract(t *testing.T) {
	p := simpleProduct(10, 0)

	err := ReserveInventory(p, 3, "", &Changes{})
	_, ok := apperrors.IsInvalidArgumentError(err)
	assert.True(t, ok)

	err = UnblockReservedInventory(p, -3, "", &Changes{})
	_, ok = apperrors.IsInvalidArgumentError(err)
	assert.True(t, ok)

	assert.Equal(t, 0, p.ReservedQuantity)
}

func TestReservedQuantityIsClamped(t *testing.T) {
	p := simpleProduct(20, 0)
	ch := &Changes{}

	require.NoError(t, ReserveInventory(p, -5, "", ch))
	assert.Equal(t, 5, p.ReservedQuantity)

	require.NoError(t, UnblockReservedInventory(p, 10, "", ch))
	assert.Equal(t, 0, p.ReservedQuantity)
	assert.True(t, ch.Stock)
}

func TestReserveInventory_MissingWarehouseRowIsSkipped(t *testing.T) {
	p := multiWarehouseProduct()
	ch := &Changes{}

	require.NoError(t, ReserveInventory(p, -4, "W9", ch))

	assert.Equal(t, 3, p.ReservedQuantity)
	assert.False(t, ch.Dirty())
}

func TestAdjustReserved_MultiWarehouseSum(t *testing.T) {
	engine := newTestEngine(false)
	p := multiWarehouseProduct()
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -4, nil, "W1", ch))
	require.NoError(t, engine.AdjustReserved(p, 2, nil, "W2", ch))

	stock, reserved := 0, 0
	for _, row := range p.WarehouseInventory {
		stock += row.StockQuantity
		reserved += row.ReservedQuantity
	}
	assert.Equal(t, stock, p.StockQuantity)
	assert.Equal(t, reserved, p.ReservedQuantity)
	assert.Equal(t, 6, p.WarehouseRow("W1").ReservedQuantity)
	assert.Equal(t, 0, p.WarehouseRow("W2").ReservedQuantity)
	assert.ElementsMatch(t, []string{"W1", "W2"}, ch.Warehouses)
}

func TestAdjustReserved_ZeroIsNoop(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(10, 0)
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, 0, nil, "", ch))

	assert.False(t, ch.Dirty())
	assert.Empty(t, ch.Events)
}

func TestAdjustReserved_NilProduct(t *testing.T) {
	err := newTestEngine(false).AdjustReserved(nil, -1, nil, "", &Changes{})

	_, ok := apperrors.IsInvalidArgumentError(err)
	assert.True(t, ok)
}

func TestAdjustReserved_LowStockDisablesBuyButton(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(10, 0)
	p.MinStockQuantity = 5
	p.LowStockActivity = domain.LowStockActivityDisableBuyButton
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -6, nil, "", ch))

	assert.Equal(t, 6, p.ReservedQuantity)
	assert.True(t, p.DisableBuyButton)
	assert.True(t, p.LowStock)
	assert.True(t, ch.State)
	assert.Equal(t, []string{"EntityUpdated"}, eventNames(ch.Events))
}

func TestAdjustReserved_LowStockUnpublishes(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(10, 0)
	p.MinStockQuantity = 5
	p.LowStockActivity = domain.LowStockActivityUnpublish
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -6, nil, "", ch))

	assert.False(t, p.Published)
	assert.True(t, p.LowStock)
	assert.Equal(t, []string{"ProductUnpublished", "EntityUpdated"}, eventNames(ch.Events))
}

func TestAdjustReserved_AboveThresholdKeepsState(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(10, 0)
	p.MinStockQuantity = 5
	p.LowStockActivity = domain.LowStockActivityDisableBuyButton
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -2, nil, "", ch))

	assert.False(t, p.DisableBuyButton)
	assert.False(t, ch.State)
}

func TestAdjustReserved_BackInStockRepublishes(t *testing.T) {
	engine := newTestEngine(true)
	p := simpleProduct(10, 6)
	p.MinStockQuantity = 5
	p.LowStockActivity = domain.LowStockActivityUnpublish
	p.Published = false
	p.LowStock = true
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, 6, nil, "", ch))

	assert.True(t, p.Published)
	assert.False(t, p.LowStock)
	assert.Equal(t, []string{"ProductPublished", "EntityUpdated"}, eventNames(ch.Events))
}

func TestAdjustReserved_BackInStockReenablesBuyButton(t *testing.T) {
	engine := newTestEngine(true)
	p := simpleProduct(10, 6)
	p.MinStockQuantity = 5
	p.LowStockActivity = domain.LowStockActivityDisableBuyButton
	p.DisableBuyButton = true
	p.LowStock = true
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, 1, nil, "", ch))

	assert.False(t, p.DisableBuyButton)
	// available is still 5, at the threshold
	assert.True(t, p.LowStock)
}

func TestAdjustReserved_BackInStockNeedsSetting(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(10, 6)
	p.MinStockQuantity = 5
	p.LowStockActivity = domain.LowStockActivityUnpublish
	p.Published = false
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, 6, nil, "", ch))

	assert.False(t, p.Published)
	assert.False(t, ch.State)
}

func TestAdjustReserved_NotifiesStoreOwner(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(10, 0)
	p.NotifyAdminForQuantityBelow = 3
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -8, nil, "", ch))

	require.Len(t, ch.Events, 2)
	assert.Equal(t, domain.QuantityBelowStoreOwner{ProductID: "p-1", Available: 2}, ch.Events[0])
}

func attributeProduct() *domain.Product {
	return &domain.Product{
		ID:                    "p-attr",
		ManageInventoryMethod: domain.ManageStockByAttributes,
		Combinations: []domain.AttributeCombination{
			{ID: "c-red", Attributes: domain.CustomAttributes{{Key: "color", Value: "red"}}, StockQuantity: 6, NotifyAdminForQuantityBelow: 3},
			{ID: "c-blue", Attributes: domain.CustomAttributes{{Key: "color", Value: "blue"}}, StockQuantity: 4},
		},
		StockQuantity: 10,
	}
}

func TestAdjustReserved_Combination(t *testing.T) {
	engine := newTestEngine(false)
	p := attributeProduct()
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -4, domain.CustomAttributes{{Key: "color", Value: "red"}}, "", ch))

	assert.Equal(t, 4, p.Combination("c-red").ReservedQuantity)
	assert.Equal(t, 10, p.StockQuantity)
	assert.Equal(t, 4, p.ReservedQuantity)
	assert.Equal(t, []string{"c-red"}, ch.Combinations)
	require.Len(t, ch.Events, 2)
	assert.Equal(t, domain.QuantityBelowStoreOwner{ProductID: "p-attr", CombinationID: "c-red", Available: 2}, ch.Events[0])
}

func TestAdjustReserved_UnknownCombinationOnlyEmitsUpdate(t *testing.T) {
	engine := newTestEngine(false)
	p := attributeProduct()
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -4, domain.CustomAttributes{{Key: "color", Value: "green"}}, "", ch))

	assert.False(t, ch.Dirty())
	assert.Equal(t, []string{"EntityUpdated"}, eventNames(ch.Events))
}

func TestAdjustReserved_CombinationMultiWarehouse(t *testing.T) {
	engine := newTestEngine(false)
	p := attributeProduct()
	p.UseMultipleWarehouses = true
	p.Combinations[0].WarehouseInventory = []domain.WarehouseInventory{
		{WarehouseID: "W1", StockQuantity: 2},
		{WarehouseID: "W2", StockQuantity: 4},
	}
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -3, domain.CustomAttributes{{Key: "color", Value: "red"}}, "W2", ch))

	c := p.Combination("c-red")
	assert.Equal(t, 3, c.ReservedQuantity)
	assert.Equal(t, 6, c.StockQuantity)
	assert.Equal(t, []CombinationWarehouse{{CombinationID: "c-red", WarehouseID: "W2"}}, ch.CombinationWarehouses)
}

func TestAdjustReserved_BundleItselfIsUntouched(t *testing.T) {
	engine := newTestEngine(false)
	p := &domain.Product{ID: "b-1", ManageInventoryMethod: domain.ManageStockByBundleProducts, StockQuantity: 3}
	ch := &Changes{}

	require.NoError(t, engine.AdjustReserved(p, -2, nil, "", ch))

	assert.Equal(t, 0, p.ReservedQuantity)
	assert.False(t, ch.Dirty())
	assert.Equal(t, []string{"EntityUpdated"}, eventNames(ch.Events))
}
