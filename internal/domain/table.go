package domain

import "time"

type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

// Table is a physical dining table. Status always reflects the single
// order or reservation currently holding it; a table in maintenance
// accepts no new order or reservation.
type Table struct {
	ID          int64       `json:"id" gorm:"primaryKey"`
	Number      int         `json:"number" gorm:"not null;uniqueIndex"`
	Capacity    int         `json:"capacity" gorm:"not null" validate:"gte=1"`
	MinCapacity *int        `json:"min_capacity,omitempty"`
	Floor       int         `json:"floor" gorm:"not null;default:1"`
	Status      TableStatus `json:"status" gorm:"type:varchar(16);not null;default:'available';index"`
	IsActive    bool        `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Table) TableName() string { return "tables" }
