package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Available(t *testing.T) {
	p := Product{StockQuantity: 10, ReservedQuantity: 4}
	assert.Equal(t, 6, p.Available())

	p = Product{StockQuantity: 2, ReservedQuantity: 5}
	assert.Equal(t, -3, p.Available())
}

func TestProduct_WarehouseRow(t *testing.T) {
	p := Product{
		WarehouseInventory: []WarehouseInventory{
			{WarehouseID: "W1", StockQuantity: 10},
			{WarehouseID: "W2", StockQuantity: 20},
		},
	}

	row := p.WarehouseRow("W2")
	require.NotNil(t, row)
	row.ReservedQuantity = 3
	assert.Equal(t, 3, p.WarehouseInventory[1].ReservedQuantity)

	assert.Nil(t, p.WarehouseRow("W9"))
}

func TestProduct_SumWarehouses(t *testing.T) {
	p := Product{
		StockQuantity: 999,
		WarehouseInventory: []WarehouseInventory{
			{WarehouseID: "W1", StockQuantity: 10, ReservedQuantity: 1},
			{WarehouseID: "W2", StockQuantity: 20, ReservedQuantity: 5},
		},
	}

	p.SumWarehouses()

	assert.Equal(t, 30, p.StockQuantity)
	assert.Equal(t, 6, p.ReservedQuantity)
}

func TestProduct_SumCombinations(t *testing.T) {
	p := Product{
		Combinations: []AttributeCombination{
			{ID: "c1", StockQuantity: 7, ReservedQuantity: 2},
			{ID: "c2", StockQuantity: 3, ReservedQuantity: 1},
		},
	}

	p.SumCombinations()

	assert.Equal(t, 10, p.StockQuantity)
	assert.Equal(t, 3, p.ReservedQuantity)
	assert.NotNil(t, p.Combination("c2"))
	assert.Nil(t, p.Combination("missing"))
}

func TestAttributeCombination_SumWarehouses(t *testing.T) {
	c := AttributeCombination{
		WarehouseInventory: []WarehouseInventory{
			{WarehouseID: "W1", StockQuantity: 4, ReservedQuantity: 1},
			{WarehouseID: "W2", StockQuantity: 6, ReservedQuantity: 0},
		},
	}

	c.SumWarehouses()

	assert.Equal(t, 10, c.StockQuantity)
	assert.Equal(t, 1, c.ReservedQuantity)
	assert.NotNil(t, c.WarehouseRow("W1"))
	assert.Nil(t, c.WarehouseRow("W3"))
}

func TestProduct_StockPolicy(t *testing.T) {
	tests := []struct {
		method    ManageInventoryMethod
		policy    StockPolicy
		journaled bool
	}{
		{DontManageStock, Untracked{}, false},
		{ManageStock, BySimpleStock{}, true},
		{ManageStockByAttributes, ByAttributeCombination{}, true},
		{ManageStockByBundleProducts, ByBundle{}, false},
	}

	for _, tt := range tests {
		p := Product{ManageInventoryMethod: tt.method}
		assert.Equal(t, tt.policy, p.StockPolicy())
		assert.Equal(t, tt.journaled, p.Journaled())
	}
}

func TestProduct_StockPolicy_UnknownMethodPanics(t *testing.T) {
	p := Product{ID: "p-1", ManageInventoryMethod: ManageInventoryMethod(42)}
	assert.Panics(t, func() { p.StockPolicy() })
}

func TestManageInventoryMethod_Scan(t *testing.T) {
	var m ManageInventoryMethod

	require.NoError(t, m.Scan(int64(2)))
	assert.Equal(t, ManageStockByAttributes, m)

	require.NoError(t, m.Scan([]byte("3")))
	assert.Equal(t, ManageStockByBundleProducts, m)

	assert.Error(t, m.Scan(int64(42)))
	assert.Error(t, m.Scan([]byte("x")))
	assert.Error(t, m.Scan(nil))
	assert.Equal(t, ManageStockByBundleProducts, m, "a rejected value leaves the method unchanged")
}
