package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"

	"tableside/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
}

// Migrate keeps the schema in sync with the domain models. Referenced
// tables migrate first.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Table{},
		&domain.MenuItem{},
		&domain.Staff{},
		&domain.Reservation{},
		&domain.ReservationAudit{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.KitchenOrder{},
		&domain.Notification{},
	)
}
