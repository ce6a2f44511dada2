package domain

import "time"

// MenuItem prices are stored in minor currency units so totals never
// accumulate floating-point drift.
type MenuItem struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Category    string    `json:"category" gorm:"type:varchar(32);not null;index"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Price       int64     `json:"price" gorm:"not null" validate:"gte=0"`
	IsAvailable bool      `json:"is_available" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MenuItem) TableName() string { return "menu_items" }
