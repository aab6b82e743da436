package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

func TestBookAndReverse_RoundTrip(t *testing.T) {
	engine := newTestEngine(false)
	p := simpleProduct(100, 10)

	require.NoError(t, engine.BookInventory(p, 4, "", nil, &Changes{}))
	assert.Equal(t, 96, p.StockQuantity)
	assert.Equal(t, 6, p.ReservedQuantity)

	require.NoError(t, engine.ReverseInventory(p, domain.InventoryJournal{OutQty: 4}, &Changes{}))
	assert.Equal(t, 100, p.StockQuantity)
	assert.Equal(t, 10, p.ReservedQuantity)
}

func TestBookInventory_MultiWarehouse(t *testing.T) {
	engine := newTestEngine(false)
	p := multiWarehouseProduct()
	ch := &Changes{}

	require.NoError(t, engine.BookInventory(p, 3, "W1", nil, ch))

	assert.Equal(t, 7, p.WarehouseRow("W1").StockQuantity)
	assert.Equal(t, 0, p.WarehouseRow("W1").ReservedQuantity)
	assert.Equal(t, 12, p.StockQuantity)
	assert.Equal(t, 1, p.ReservedQuantity)
	assert.Equal(t, []string{"W1"}, ch.Warehouses)
}

func TestBookInventory_MissingWarehouseIsSkipped(t *testing.T) {
	engine := newTestEngine(false)
	p := multiWarehouseProduct()
	ch := &Changes{}

	require.NoError(t, engine.BookInventory(p, 3, "W9", nil, ch))

	assert.Equal(t, 15, p.StockQuantity)
	assert.False(t, ch.Dirty())
}

func TestBookAndReverse_Combination(t *testing.T) {
	engine := newTestEngine(false)
	p := attributeProduct()
	p.Combinations[0].ReservedQuantity = 2
	p.SumCombinations()
	attrs := domain.CustomAttributes{{Key: "color", Value: "red"}}

	require.NoError(t, engine.BookInventory(p, 2, "", attrs, &Changes{}))
	assert.Equal(t, 4, p.Combination("c-red").StockQuantity)
	assert.Equal(t, 0, p.Combination("c-red").ReservedQuantity)
	assert.Equal(t, 8, p.StockQuantity)

	require.NoError(t, engine.ReverseInventory(p, domain.InventoryJournal{OutQty: 2, Attributes: attrs}, &Changes{}))
	assert.Equal(t, 6, p.Combination("c-red").StockQuantity)
	assert.Equal(t, 2, p.Combination("c-red").ReservedQuantity)
	assert.Equal(t, 10, p.StockQuantity)
}

func TestBookInventory_RejectsNonPositiveQuantity(t *testing.T) {
	err := newTestEngine(false).BookInventory(simpleProduct(1, 0), 0, "", nil, &Changes{})

	_, ok := apperrors.IsInvalidArgumentError(err)
	assert.True(t, ok)
}
