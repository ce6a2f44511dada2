package orders

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
	"tableside/internal/modules/menu"
)

// fakeKitchen stands in for the kitchen adapter so tests control the
// cancel gate directly.
type fakeKitchen struct {
	confirmed []int64
	cancelled []int64
	canCancel bool
}

func (f *fakeKitchen) OnOrderConfirmed(ctx context.Context, orderID int64) (*domain.KitchenOrder, error) {
	f.confirmed = append(f.confirmed, orderID)
	return &domain.KitchenOrder{OrderID: orderID, Status: domain.KitchenPending}, nil
}

func (f *fakeKitchen) CanCancel(tx *gorm.DB, orderID int64) (bool, error) {
	return f.canCancel, nil
}

func (f *fakeKitchen) OnOrderCancelled(tx *gorm.DB, orderID int64) error {
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func setupOrderService(t *testing.T) (*Service, *gorm.DB, *fakeKitchen) {
	t.Helper()
	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Table{},
		&domain.MenuItem{},
		&domain.Staff{},
		&domain.Reservation{},
		&domain.ReservationAudit{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.KitchenOrder{},
	))

	fk := &fakeKitchen{canCancel: true}
	svc := NewService(db, menu.NewService(db), fk, events.Nop{}, 1000)
	return svc, db, fk
}

func seedTable(t *testing.T, db *gorm.DB, number int, status domain.TableStatus) *domain.Table {
	t.Helper()
	table := &domain.Table{Number: number, Capacity: 4, Floor: 1, Status: status, IsActive: true}
	require.NoError(t, db.Create(table).Error)
	return table
}

func seedMenuItem(t *testing.T, db *gorm.DB, name string, price int64) *domain.MenuItem {
	t.Helper()
	item := &domain.MenuItem{Name: name, Category: "mains", Price: price, IsAvailable: true}
	require.NoError(t, db.Create(item).Error)
	return item
}

func tableStatus(t *testing.T, db *gorm.DB, id int64) domain.TableStatus {
	t.Helper()
	var table domain.Table
	require.NoError(t, db.First(&table, id).Error)
	return table.Status
}

func TestCreateOrderOccupiesTable(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID, PartySize: 2})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPending, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, domain.TableOccupied, tableStatus(t, db, table.ID))
}

func TestCreateOrderRefusedWhenTableOccupied(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	assert.ErrorIs(t, err, ErrTableOccupied)
}

func TestCreateOrderRefusedUnderMaintenance(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableMaintenance)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	assert.ErrorIs(t, err, ErrTableUnderMaintenance)
}

func TestCreateOrderForSeatedReservation(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableOccupied)
	res := &domain.Reservation{
		Code:         "RSV-TEST-SEATED",
		TableID:      table.ID,
		CustomerName: "Aizhan",
		PartySize:    2,
		Status:       domain.ReservationSeated,
	}
	require.NoError(t, db.Create(res).Error)

	// The seated party's own order opens despite the occupied table.
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableID: table.ID, ReservationID: &res.ID, PartySize: 2,
	})
	require.NoError(t, err)
	require.NotNil(t, order.ReservationID)
	assert.Equal(t, res.ID, *order.ReservationID)

	// A walk-in still cannot take the table.
	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	assert.ErrorIs(t, err, ErrTableOccupied)
}

func TestCreateOrderLinkedToWrongTableRefused(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	t1 := seedTable(t, db, 1, domain.TableAvailable)
	t2 := seedTable(t, db, 2, domain.TableAvailable)
	res := &domain.Reservation{
		Code:         "RSV-TEST-OTHER",
		TableID:      t2.ID,
		CustomerName: "Aizhan",
		PartySize:    2,
		Status:       domain.ReservationConfirmed,
	}
	require.NoError(t, db.Create(res).Error)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: t1.ID, ReservationID: &res.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderUnknownTable(t *testing.T) {
	svc, _, _ := setupOrderService(t)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: 404})
	assert.Error(t, err)
}

func TestAddItemsRecomputesTotals(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)
	wine := seedMenuItem(t, db, "Wine", 60000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 2})
	require.NoError(t, err)
	order, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: wine.ID, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(130000), order.Subtotal)
	assert.Equal(t, int64(13000), order.TaxAmount)
	assert.Equal(t, int64(143000), order.FinalAmount)
}

func TestUpdateItemQuantityRecomputesTotals(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	order, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)

	three := 3
	order, err = svc.UpdateItem(context.Background(), order.ID, order.Items[0].ID, UpdateItemRequest{Quantity: &three})
	require.NoError(t, err)

	assert.Equal(t, int64(105000), order.Subtotal)
	assert.Equal(t, int64(115500), order.FinalAmount)
}

func TestUnitPriceFrozenAtAddTime(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	order, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)

	// Menu price rises after the item was added.
	require.NoError(t, db.Model(&domain.MenuItem{}).Where("id = ?", steak.ID).Update("price", 99000).Error)

	two := 2
	order, err = svc.UpdateItem(context.Background(), order.ID, order.Items[0].ID, UpdateItemRequest{Quantity: &two})
	require.NoError(t, err)

	assert.Equal(t, int64(70000), order.Subtotal)
}

func TestAddItemRefusedForUnavailableMenuItem(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	offMenu := &domain.MenuItem{Name: "Special", Category: "mains", Price: 10000, IsAvailable: false}
	require.NoError(t, db.Create(offMenu).Error)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: offMenu.ID, Quantity: 1})
	assert.ErrorIs(t, err, menu.ErrNotAvailable)
}

func TestConfirmEmptyOrderRefused(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)

	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestConfirmHandsOrderToKitchen(t *testing.T) {
	svc, db, fk := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)

	order, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderConfirmed, order.Status)
	assert.NotNil(t, order.ConfirmedAt)
	assert.Equal(t, []int64{order.ID}, fk.confirmed)
}

func TestItemsFrozenAfterConfirmation(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	order, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrOrderNotEditable)

	two := 2
	_, err = svc.UpdateItem(context.Background(), order.ID, order.Items[0].ID, UpdateItemRequest{Quantity: &two})
	assert.ErrorIs(t, err, ErrOrderNotEditable)

	_, err = svc.RemoveItem(context.Background(), order.ID, order.Items[0].ID)
	assert.ErrorIs(t, err, ErrOrderNotEditable)
}

func TestCancelItemAfterConfirmationRecomputesTotals(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)
	wine := seedMenuItem(t, db, "Wine", 60000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 2})
	require.NoError(t, err)
	order, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: wine.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	var wineItem domain.OrderItem
	require.NoError(t, db.Where("order_id = ? AND menu_item_id = ?", order.ID, wine.ID).First(&wineItem).Error)

	order, err = svc.CancelItem(context.Background(), order.ID, wineItem.ID, "out of stock")
	require.NoError(t, err)

	assert.Equal(t, int64(70000), order.Subtotal)
	assert.Equal(t, int64(77000), order.FinalAmount)
}

func TestCancelServedItemRefused(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	order, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.OrderItem{}).Where("id = ?", order.Items[0].ID).
		Update("status", domain.OrderItemServed).Error)

	_, err = svc.CancelItem(context.Background(), order.ID, order.Items[0].ID, "changed mind")
	assert.ErrorIs(t, err, ErrItemAlreadyServed)
}

func TestCancelOrderReleasesTable(t *testing.T) {
	svc, db, fk := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	order, err = svc.CancelOrder(context.Background(), order.ID, "guest left")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderCancelled, order.Status)
	assert.Equal(t, "guest left", order.CancellationReason)
	assert.Equal(t, domain.TableAvailable, tableStatus(t, db, table.ID))
	assert.Equal(t, []int64{order.ID}, fk.cancelled)
}

func TestCancelRefusedOnceKitchenStarted(t *testing.T) {
	svc, db, fk := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	fk.canCancel = false

	_, err = svc.CancelOrder(context.Background(), order.ID, "too slow")
	assert.ErrorIs(t, err, ErrKitchenStarted)

	// Nothing moved: order still confirmed, table still occupied.
	got, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	assert.Equal(t, domain.TableOccupied, tableStatus(t, db, table.ID))
}

func TestCancelRequiresReason(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), order.ID, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteOrderReleasesTable(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	order, err = svc.CompleteOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderCompleted, order.Status)
	assert.NotNil(t, order.CompletedAt)
	assert.Equal(t, domain.TableAvailable, tableStatus(t, db, table.ID))

	// Table is free again for the next party.
	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	assert.NoError(t, err)
}

func TestMarkServingRequiresReady(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	table := seedTable(t, db, 1, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: table.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), order.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.MarkServing(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, db.Model(&domain.Order{}).Where("id = ?", order.ID).
		Update("status", domain.OrderReady).Error)

	got, err := svc.MarkServing(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderServing, got.Status)
}

func TestListActiveExcludesClosedOrders(t *testing.T) {
	svc, db, _ := setupOrderService(t)
	t1 := seedTable(t, db, 1, domain.TableAvailable)
	t2 := seedTable(t, db, 2, domain.TableAvailable)
	steak := seedMenuItem(t, db, "Steak", 35000)

	open, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: t1.ID})
	require.NoError(t, err)

	closed, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableID: t2.ID})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), closed.ID, AddItemRequest{MenuItemID: steak.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(context.Background(), closed.ID)
	require.NoError(t, err)
	_, err = svc.CompleteOrder(context.Background(), closed.ID)
	require.NoError(t, err)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)
}
