package main

import (
	"fmt"
	"log"
	"os"

	"tableside/internal/database"
	"tableside/internal/domain"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "tableside.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM kitchen_orders")
	db.Exec("DELETE FROM order_items")
	db.Exec("DELETE FROM orders")
	db.Exec("DELETE FROM reservation_audit")
	db.Exec("DELETE FROM reservations")
	db.Exec("DELETE FROM menu_items")
	db.Exec("DELETE FROM staff")
	db.Exec("DELETE FROM tables")

	// ================== TABLES ==================
	log.Println("Creating tables...")

	min4 := 3
	min8 := 5
	floorTables := []domain.Table{
		{Number: 1, Capacity: 2, Floor: 1, Status: domain.TableAvailable, IsActive: true},
		{Number: 2, Capacity: 2, Floor: 1, Status: domain.TableAvailable, IsActive: true},
		{Number: 3, Capacity: 4, Floor: 1, Status: domain.TableAvailable, IsActive: true},
		{Number: 4, Capacity: 4, Floor: 1, Status: domain.TableAvailable, IsActive: true, MinCapacity: &min4},
		{Number: 5, Capacity: 6, Floor: 2, Status: domain.TableAvailable, IsActive: true},
		{Number: 6, Capacity: 8, Floor: 2, Status: domain.TableAvailable, IsActive: true, MinCapacity: &min8},
		{Number: 7, Capacity: 4, Floor: 2, Status: domain.TableMaintenance, IsActive: true},
		{Number: 8, Capacity: 2, Floor: 1, Status: domain.TableAvailable, IsActive: false},
	}
	for i := range floorTables {
		if err := db.Create(&floorTables[i]).Error; err != nil {
			log.Fatal("table seed failed:", err)
		}
	}
	log.Printf("Created %d tables", len(floorTables))

	// ================== MENU ==================
	log.Println("Creating menu items...")

	// Prices in minor units (tiyn / cents).
	menuItems := []domain.MenuItem{
		{Name: "Beshbarmak", Category: "mains", Price: 350000, IsAvailable: true},
		{Name: "Lagman", Category: "mains", Price: 240000, IsAvailable: true},
		{Name: "Plov", Category: "mains", Price: 220000, IsAvailable: true},
		{Name: "Manty (6 pcs)", Category: "mains", Price: 180000, IsAvailable: true},
		{Name: "Shashlik", Category: "grill", Price: 280000, IsAvailable: true},
		{Name: "Caesar Salad", Category: "salads", Price: 160000, IsAvailable: true},
		{Name: "Achichuk", Category: "salads", Price: 90000, IsAvailable: true},
		{Name: "Baursak", Category: "sides", Price: 50000, IsAvailable: true},
		{Name: "Green Tea", Category: "drinks", Price: 40000, IsAvailable: true},
		{Name: "Kumys", Category: "drinks", Price: 60000, IsAvailable: true},
		{Name: "Cheesecake", Category: "desserts", Price: 140000, IsAvailable: false},
	}
	for i := range menuItems {
		if err := db.Create(&menuItems[i]).Error; err != nil {
			log.Fatal("menu seed failed:", err)
		}
	}
	log.Printf("Created %d menu items", len(menuItems))

	// ================== STAFF ==================
	log.Println("Creating staff...")

	staff := []domain.Staff{
		{Name: "Aigerim", Role: domain.RoleWaiter, IsActive: true},
		{Name: "Bekzat", Role: domain.RoleWaiter, IsActive: true},
		{Name: "Dastan", Role: domain.RoleChef, IsActive: true},
		{Name: "Saule", Role: domain.RoleChef, IsActive: true},
		{Name: "Marat", Role: domain.RoleManager, IsActive: true},
		{Name: "Olzhas", Role: domain.RoleWaiter, IsActive: false},
	}
	for i := range staff {
		if err := db.Create(&staff[i]).Error; err != nil {
			log.Fatal("staff seed failed:", err)
		}
	}
	log.Printf("Created %d staff members", len(staff))

	fmt.Println()
	log.Println("Seed complete.")
	log.Printf("Tables: %d | Menu items: %d | Staff: %d", len(floorTables), len(menuItems), len(staff))
}
