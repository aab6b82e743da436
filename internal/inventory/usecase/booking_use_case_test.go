package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/attribute"
	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/inventory/service"
)

type mockJournalRepository struct {
	InsertIfAbsentFunc            func(ctx context.Context, tx sqlx.ExtContext, j domain.InventoryJournal) (bool, error)
	ExistsFunc                    func(ctx context.Context, productID, positionID string) (bool, error)
	FindByPositionIDForUpdateFunc func(ctx context.Context, tx sqlx.ExtContext, positionID string) ([]domain.InventoryJournal, error)
	DeleteFunc                    func(ctx context.Context, tx sqlx.ExtContext, id string) error
}

func (m *mockJournalRepository) InsertIfAbsent(ctx context.Context, tx sqlx.ExtContext, j domain.InventoryJournal) (bool, error) {
	return m.InsertIfAbsentFunc(ctx, tx, j)
}

func (m *mockJournalRepository) Exists(ctx context.Context, productID, positionID string) (bool, error) {
	return m.ExistsFunc(ctx, productID, positionID)
}

func (m *mockJournalRepository) FindByPositionIDForUpdate(ctx context.Context, tx sqlx.ExtContext, positionID string) ([]domain.InventoryJournal, error) {
	return m.FindByPositionIDForUpdateFunc(ctx, tx, positionID)
}

func (m *mockJournalRepository) Delete(ctx context.Context, tx sqlx.ExtContext, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}

// newJournalStore keeps journal rows in memory, unique on
// (productId, positionId) like the table.
func newJournalStore(existing ...domain.InventoryJournal) (*[]domain.InventoryJournal, *mockJournalRepository) {
	rows := append([]domain.InventoryJournal(nil), existing...)

	find := func(productID, positionID string) int {
		for i, j := range rows {
			if j.ProductID == productID && j.PositionID == positionID {
				return i
			}
		}
		return -1
	}

	repo := &mockJournalRepository{
		InsertIfAbsentFunc: func(ctx context.Context, tx sqlx.ExtContext, j domain.InventoryJournal) (bool, error) {
			if find(j.ProductID, j.PositionID) >= 0 {
				return false, nil
			}
			rows = append(rows, j)
			return true, nil
		},
		ExistsFunc: func(ctx context.Context, productID, positionID string) (bool, error) {
			return find(productID, positionID) >= 0, nil
		},
		FindByPositionIDForUpdateFunc: func(ctx context.Context, tx sqlx.ExtContext, positionID string) ([]domain.InventoryJournal, error) {
			var out []domain.InventoryJournal
			for _, j := range rows {
				if j.PositionID == positionID {
					out = append(out, j)
				}
			}
			return out, nil
		},
		DeleteFunc: func(ctx context.Context, tx sqlx.ExtContext, id string) error {
			for i, j := range rows {
				if j.ID == id {
					rows = append(rows[:i], rows[i+1:]...)
					return nil
				}
			}
			return apperrors.NewNotFoundError("journal " + id + " not found")
		},
	}

	return &rows, repo
}

func newTestBookingUseCase(txManager TransactionManager, products ProductRepository, journals JournalRepository, effects EffectPublisher) *BookingUseCase {
	parser := attribute.NewParser()
	uc := NewBookingUseCase(
		txManager,
		products,
		journals,
		service.NewEngine(parser, config.CatalogConfig{}),
		service.NewPlanner(parser),
		effects,
		zap.NewNop(),
		config.InventoryConfig{MaxRetryAttempts: 3},
	)
	seq := 0
	uc.newID = func() string {
		seq++
		return fmt.Sprintf("j-%d", seq)
	}
	return uc
}

func testShipment(productID string, quantity int) (*domain.Shipment, *domain.ShipmentItem) {
	item := domain.ShipmentItem{ID: "item-1", ProductID: productID, Quantity: quantity}
	return &domain.Shipment{ID: "s-1", ShipmentNumber: 1001, OrderID: "o-1", Items: []domain.ShipmentItem{item}}, &item
}

func TestBookReservedInventory_SimpleProduct(t *testing.T) {
	store, products := newProductStore(stockProduct("p-1", 100, 10))
	journal, journals := newJournalStore()
	effects := &mockEffects{}
	uc := newTestBookingUseCase(&mockTxManager{}, products, journals, effects)
	shipment, item := testShipment("p-1", 4)

	err := uc.BookReservedInventory(context.Background(), shipment, item)

	require.NoError(t, err)
	assert.Equal(t, 96, store.get("p-1").StockQuantity)
	assert.Equal(t, 6, store.get("p-1").ReservedQuantity)

	require.Len(t, *journal, 1)
	j := (*journal)[0]
	assert.Equal(t, "p-1", j.ProductID)
	assert.Equal(t, "item-1", j.PositionID)
	assert.Equal(t, "s-1", j.ObjectID)
	assert.Equal(t, domain.JournalObjectShipment, j.ObjectType)
	assert.Equal(t, "1001", j.Reference)
	assert.Equal(t, 4, j.OutQty)

	require.Len(t, effects.calls, 1)
	assert.ElementsMatch(t, []string{
		"EntityInserted:j-1",
		"EntityUpdated:p-1",
	}, eventNames(effects.calls[0].events))
}

func TestBookReservedInventory_BookingTwiceChangesNothing(t *testing.T) {
	store, products := newProductStore(stockProduct("p-1", 100, 10))
	journal, journals := newJournalStore()
	uc := newTestBookingUseCase(&mockTxManager{}, products, journals, &mockEffects{})
	shipment, item := testShipment("p-1", 4)

	require.NoError(t, uc.BookReservedInventory(context.Background(), shipment, item))
	require.NoError(t, uc.BookReservedInventory(context.Background(), shipment, item))

	assert.Equal(t, 96, store.get("p-1").StockQuantity)
	assert.Equal(t, 6, store.get("p-1").ReservedQuantity)
	assert.Len(t, *journal, 1)
}

func TestBookReservedInventory_AlreadyBookedComponentIsSkipped(t *testing.T) {
	store, products := newProductStore(
		bundleProduct("b-1",
			domain.BundleProduct{BundleProductID: "b-1", ProductID: "p-1", Quantity: 2},
			domain.BundleProduct{BundleProductID: "b-1", ProductID: "p-2", Quantity: 1, DisplayOrder: 1},
		),
		stockProduct("p-1", 50, 10),
		stockProduct("p-2", 50, 10),
	)
	journal, journals := newJournalStore(domain.InventoryJournal{ID: "j-old", ProductID: "p-1", PositionID: "item-1", OutQty: 6})
	uc := newTestBookingUseCase(&mockTxManager{}, products, journals, &mockEffects{})
	shipment, item := testShipment("b-1", 3)

	err := uc.BookReservedInventory(context.Background(), shipment, item)

	require.NoError(t, err)
	assert.Equal(t, 50, store.get("p-1").StockQuantity)
	assert.Equal(t, 10, store.get("p-1").ReservedQuantity)
	assert.Equal(t, 47, store.get("p-2").StockQuantity)
	assert.Equal(t, 7, store.get("p-2").ReservedQuantity)
	assert.Len(t, *journal, 2)
}

func TestBookReservedInventory_UntrackedProductWritesNoJournal(t *testing.T) {
	untracked := &domain.Product{ID: "p-u", ManageInventoryMethod: domain.DontManageStock, Published: true}
	_, products := newProductStore(untracked)
	journal, journals := newJournalStore()
	effects := &mockEffects{}
	uc := newTestBookingUseCase(&mockTxManager{}, products, journals, effects)
	shipment, item := testShipment("p-u", 2)

	require.NoError(t, uc.BookReservedInventory(context.Background(), shipment, item))

	assert.Empty(t, *journal)
	require.Len(t, effects.calls, 1)
	assert.Equal(t, []string{"EntityUpdated:p-u"}, eventNames(effects.calls[0].events))
}

func TestBookReservedInventory_InvalidInput(t *testing.T) {
	uc := newTestBookingUseCase(&mockTxManager{}, &mockProductRepository{}, &mockJournalRepository{}, &mockEffects{})
	shipment, item := testShipment("p-1", 0)

	tests := []struct {
		name     string
		shipment *domain.Shipment
		item     *domain.ShipmentItem
	}{
		{name: "nil shipment", item: item},
		{name: "nil item", shipment: shipment},
		{name: "zero quantity", shipment: shipment, item: item},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := uc.BookReservedInventory(context.Background(), tt.shipment, tt.item)

			_, ok := apperrors.IsInvalidArgumentError(err)
			assert.True(t, ok)
		})
	}
}

func TestReverseBookedInventory_RestoresBookedQuantities(t *testing.T) {
	store, products := newProductStore(stockProduct("p-1", 100, 10))
	journal, journals := newJournalStore()
	effects := &mockEffects{}
	uc := newTestBookingUseCase(&mockTxManager{}, products, journals, effects)
	shipment, item := testShipment("p-1", 4)

	require.NoError(t, uc.BookReservedInventory(context.Background(), shipment, item))
	require.NoError(t, uc.ReverseBookedInventory(context.Background(), shipment, item))

	assert.Equal(t, 100, store.get("p-1").StockQuantity)
	assert.Equal(t, 10, store.get("p-1").ReservedQuantity)
	assert.Empty(t, *journal)

	require.Len(t, effects.calls, 2)
	assert.ElementsMatch(t, []string{
		"EntityUpdated:p-1",
		"EntityDeleted:j-1",
	}, eventNames(effects.calls[1].events))
}

func TestReverseBookedInventory_NothingBookedIsNoop(t *testing.T) {
	_, products := newProductStore(stockProduct("p-1", 100, 10))
	_, journals := newJournalStore()
	txManager := &mockTxManager{}
	effects := &mockEffects{}
	uc := newTestBookingUseCase(txManager, products, journals, effects)
	shipment, item := testShipment("p-1", 4)

	err := uc.ReverseBookedInventory(context.Background(), shipment, item)

	require.NoError(t, err)
	assert.Empty(t, effects.calls)
	assert.False(t, txManager.last().committed)
}

func TestReverseBookedInventory_DeletedProductStillDropsJournal(t *testing.T) {
	_, products := newProductStore()
	journal, journals := newJournalStore(domain.InventoryJournal{ID: "j-old", ProductID: "gone", PositionID: "item-1", OutQty: 2})
	effects := &mockEffects{}
	uc := newTestBookingUseCase(&mockTxManager{}, products, journals, effects)
	shipment, item := testShipment("gone", 2)

	require.NoError(t, uc.ReverseBookedInventory(context.Background(), shipment, item))

	assert.Empty(t, *journal)
	require.Len(t, effects.calls, 1)
	assert.Equal(t, []string{"EntityDeleted:j-old"}, eventNames(effects.calls[0].events))
}

func TestCheckExistsInventoryJournal(t *testing.T) {
	_, journals := newJournalStore(domain.InventoryJournal{ID: "j-1", ProductID: "p-1", PositionID: "item-1"})
	uc := newTestBookingUseCase(&mockTxManager{}, &mockProductRepository{}, journals, &mockEffects{})

	exists, err := uc.CheckExistsInventoryJournal(context.Background(), "p-1", "item-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = uc.CheckExistsInventoryJournal(context.Background(), "p-1", "item-2")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = uc.CheckExistsInventoryJournal(context.Background(), "", "item-1")
	_, ok := apperrors.IsInvalidArgumentError(err)
	assert.True(t, ok)
}
