package kitchen

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"

	"tableside/internal/domain"
	"tableside/internal/events"
)

func setupAdapter(t *testing.T) (*Adapter, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:kitchen_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Table{},
		&domain.Staff{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.KitchenOrder{},
	))
	return NewAdapter(db, events.Nop{}), db
}

func seedConfirmedOrder(t *testing.T, db *gorm.DB) *domain.Order {
	t.Helper()
	table := &domain.Table{Number: 1, Capacity: 4, Floor: 1, Status: domain.TableOccupied, IsActive: true}
	require.NoError(t, db.Create(table).Error)
	order := &domain.Order{
		OrderNumber: fmt.Sprintf("ORD-TEST-%d", table.ID),
		TableID:     table.ID,
		PartySize:   2,
		Status:      domain.OrderConfirmed,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedChef(t *testing.T, db *gorm.DB, active bool) *domain.Staff {
	t.Helper()
	chef := &domain.Staff{Name: "Dastan", Role: domain.RoleChef, IsActive: active}
	require.NoError(t, db.Create(chef).Error)
	return chef
}

func TestOnOrderConfirmedCreatesRecordOnce(t *testing.T) {
	adapter, db := setupAdapter(t)
	order := seedConfirmedOrder(t, db)

	first, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KitchenPending, first.Status)

	// A duplicate confirm lands on the same record.
	second, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&domain.KitchenOrder{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCanCancelGate(t *testing.T) {
	adapter, db := setupAdapter(t)
	order := seedConfirmedOrder(t, db)

	// No kitchen record yet: cancel is allowed.
	ok, err := adapter.CanCancel(db, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ko, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)

	ok, err = adapter.CanCancel(db, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	chef := seedChef(t, db, true)
	_, err = adapter.StartPreparing(context.Background(), ko.ID, chef.ID)
	require.NoError(t, err)

	ok, err = adapter.CanCancel(db, order.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOnOrderCancelledOnlyTouchesPending(t *testing.T) {
	adapter, db := setupAdapter(t)
	order := seedConfirmedOrder(t, db)

	ko, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)

	require.NoError(t, adapter.OnOrderCancelled(db, order.ID))

	var got domain.KitchenOrder
	require.NoError(t, db.First(&got, ko.ID).Error)
	assert.Equal(t, domain.KitchenCancelled, got.Status)
}

func TestStartPreparingValidatesChef(t *testing.T) {
	adapter, db := setupAdapter(t)
	order := seedConfirmedOrder(t, db)
	ko, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)

	waiter := &domain.Staff{Name: "Aigerim", Role: domain.RoleWaiter, IsActive: true}
	require.NoError(t, db.Create(waiter).Error)
	_, err = adapter.StartPreparing(context.Background(), ko.ID, waiter.ID)
	assert.ErrorIs(t, err, ErrChefNotFound)

	retired := seedChef(t, db, false)
	_, err = adapter.StartPreparing(context.Background(), ko.ID, retired.ID)
	assert.ErrorIs(t, err, ErrChefNotFound)

	chef := seedChef(t, db, true)
	got, err := adapter.StartPreparing(context.Background(), ko.ID, chef.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KitchenPreparing, got.Status)
	assert.NotNil(t, got.StartedAt)
	require.NotNil(t, got.ChefID)
	assert.Equal(t, chef.ID, *got.ChefID)
}

func TestMarkReadyAdvancesParentOrder(t *testing.T) {
	adapter, db := setupAdapter(t)
	order := seedConfirmedOrder(t, db)
	ko, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)
	chef := seedChef(t, db, true)
	_, err = adapter.StartPreparing(context.Background(), ko.ID, chef.ID)
	require.NoError(t, err)

	got, err := adapter.MarkReady(context.Background(), ko.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KitchenReady, got.Status)
	assert.NotNil(t, got.CompletedAt)

	var parent domain.Order
	require.NoError(t, db.First(&parent, order.ID).Error)
	assert.Equal(t, domain.OrderReady, parent.Status)
}

func TestMarkReadyRequiresPreparing(t *testing.T) {
	adapter, db := setupAdapter(t)
	order := seedConfirmedOrder(t, db)
	ko, err := adapter.OnOrderConfirmed(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = adapter.MarkReady(context.Background(), ko.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListQueueExcludesFinishedWork(t *testing.T) {
	adapter, db := setupAdapter(t)
	first := seedConfirmedOrder(t, db)

	table2 := &domain.Table{Number: 2, Capacity: 4, Floor: 1, Status: domain.TableOccupied, IsActive: true}
	require.NoError(t, db.Create(table2).Error)
	second := &domain.Order{OrderNumber: "ORD-TEST-B", TableID: table2.ID, PartySize: 2, Status: domain.OrderConfirmed}
	require.NoError(t, db.Create(second).Error)

	koFirst, err := adapter.OnOrderConfirmed(context.Background(), first.ID)
	require.NoError(t, err)
	_, err = adapter.OnOrderConfirmed(context.Background(), second.ID)
	require.NoError(t, err)

	chef := seedChef(t, db, true)
	_, err = adapter.StartPreparing(context.Background(), koFirst.ID, chef.ID)
	require.NoError(t, err)
	_, err = adapter.MarkReady(context.Background(), koFirst.ID)
	require.NoError(t, err)

	queue, err := adapter.ListQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, second.ID, queue[0].OrderID)
}
