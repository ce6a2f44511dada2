package reservations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"

	"tableside/internal/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:reservations_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Table{},
		&domain.Reservation{},
		&domain.ReservationAudit{},
	))
	return db
}

func seedTestTable(t *testing.T, db *gorm.DB, number, capacity int) *domain.Table {
	t.Helper()
	table := &domain.Table{Number: number, Capacity: capacity, Floor: 1, Status: domain.TableAvailable, IsActive: true}
	require.NoError(t, db.Create(table).Error)
	return table
}

func seedReservation(t *testing.T, db *gorm.DB, tableID int64, start, end time.Time, status domain.ReservationStatus) *domain.Reservation {
	t.Helper()
	res := &domain.Reservation{
		Code:         fmt.Sprintf("RSV-TEST-%d", time.Now().UnixNano()),
		TableID:      tableID,
		CustomerName: "Test",
		StartTime:    start,
		EndTime:      end,
		DurationMin:  int(end.Sub(start).Minutes()),
		PartySize:    2,
		Status:       status,
	}
	require.NoError(t, db.Create(res).Error)
	return res
}

func TestFindOverlappingDetectsIntersection(t *testing.T) {
	db := setupDB(t)
	table := seedTestTable(t, db, 1, 4)

	base := time.Date(2027, 5, 20, 19, 0, 0, 0, time.UTC)
	seedReservation(t, db, table.ID, base, base.Add(2*time.Hour), domain.ReservationConfirmed)

	// 20:00-22:00 against 19:00-21:00.
	got, err := FindOverlapping(db, table.ID, base.Add(time.Hour), base.Add(3*time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindOverlappingBackToBackWindows(t *testing.T) {
	db := setupDB(t)
	table := seedTestTable(t, db, 1, 4)

	base := time.Date(2027, 5, 20, 18, 0, 0, 0, time.UTC)
	seedReservation(t, db, table.ID, base, base.Add(2*time.Hour), domain.ReservationConfirmed)

	// [18:00, 20:00) then [20:00, 22:00): no overlap.
	got, err := FindOverlapping(db, table.ID, base.Add(2*time.Hour), base.Add(4*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindOverlappingIgnoresTerminalStatuses(t *testing.T) {
	db := setupDB(t)
	table := seedTestTable(t, db, 1, 4)

	base := time.Date(2027, 5, 20, 19, 0, 0, 0, time.UTC)
	seedReservation(t, db, table.ID, base, base.Add(2*time.Hour), domain.ReservationCancelled)
	seedReservation(t, db, table.ID, base, base.Add(2*time.Hour), domain.ReservationNoShow)
	seedReservation(t, db, table.ID, base, base.Add(2*time.Hour), domain.ReservationCompleted)

	got, err := FindOverlapping(db, table.ID, base, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindOverlappingExcludesOwnID(t *testing.T) {
	db := setupDB(t)
	table := seedTestTable(t, db, 1, 4)

	base := time.Date(2027, 5, 20, 19, 0, 0, 0, time.UTC)
	mine := seedReservation(t, db, table.ID, base, base.Add(2*time.Hour), domain.ReservationConfirmed)

	got, err := FindOverlapping(db, table.ID, base.Add(30*time.Minute), base.Add(3*time.Hour), mine.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindOverlappingOtherTableDoesNotBlock(t *testing.T) {
	db := setupDB(t)
	t1 := seedTestTable(t, db, 1, 4)
	t2 := seedTestTable(t, db, 2, 4)

	base := time.Date(2027, 5, 20, 19, 0, 0, 0, time.UTC)
	seedReservation(t, db, t1.ID, base, base.Add(2*time.Hour), domain.ReservationConfirmed)

	got, err := FindOverlapping(db, t2.ID, base, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListAvailableTablesFiltersBookedAndSmall(t *testing.T) {
	db := setupDB(t)
	small := seedTestTable(t, db, 1, 2)
	booked := seedTestTable(t, db, 2, 4)
	free := seedTestTable(t, db, 3, 6)
	_ = small

	base := time.Date(2027, 5, 20, 19, 0, 0, 0, time.UTC)
	seedReservation(t, db, booked.ID, base, base.Add(2*time.Hour), domain.ReservationConfirmed)

	resolver := NewResolver(db)
	got, err := resolver.ListAvailableTables(context.Background(), AvailabilityQuery{
		Date:      "2027-05-20",
		Time:      "19:00",
		PartySize: 4,
	}, 90*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, free.ID, got[0].ID)
}
