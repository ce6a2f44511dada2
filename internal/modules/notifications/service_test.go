package notifications

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

func setupService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Notification{}))
	return NewService(db)
}

func TestPublishPersistsFeedEntry(t *testing.T) {
	svc := setupService(t)

	svc.Publish(events.OrderConfirmed, events.OrderEvent{OrderID: 7, OrderNumber: "ORD-X", Status: "confirmed"})

	list, unread, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), unread)
	assert.Equal(t, events.OrderConfirmed, list[0].Event)
	assert.Equal(t, "Order confirmed", list[0].Title)
	assert.Contains(t, list[0].Data, "ORD-X")
	assert.False(t, list[0].IsRead())
}

func TestMarkAsRead(t *testing.T) {
	svc := setupService(t)
	svc.Publish(events.ReservationCreated, events.ReservationEvent{ReservationID: 1})

	list, unread, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkAsRead(context.Background(), list[0].ID))

	// Marking twice is harmless.
	require.NoError(t, svc.MarkAsRead(context.Background(), list[0].ID))

	_, unread, err = svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestMarkAsReadUnknownID(t *testing.T) {
	svc := setupService(t)

	err := svc.MarkAsRead(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAllAsRead(t *testing.T) {
	svc := setupService(t)
	svc.Publish(events.OrderConfirmed, events.OrderEvent{OrderID: 1})
	svc.Publish(events.OrderCompleted, events.OrderEvent{OrderID: 1})
	svc.Publish(events.KitchenOrderReady, events.KitchenEvent{OrderID: 1})

	require.NoError(t, svc.MarkAllAsRead(context.Background()))

	_, unread, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}
