package domain

import "time"

type KitchenStatus string

const (
	KitchenPending   KitchenStatus = "pending"
	KitchenPreparing KitchenStatus = "preparing"
	KitchenReady     KitchenStatus = "ready"
	KitchenCancelled KitchenStatus = "cancelled"
)

// KitchenOrder is created exactly once when an order is confirmed. Its
// status gates whether the parent order may still be cancelled: once the
// kitchen moves past pending, cancellation is refused.
type KitchenOrder struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	OrderID     int64         `json:"order_id" gorm:"not null;uniqueIndex"`
	Status      KitchenStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	ChefID      *int64        `json:"chef_id,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Chef  *Staff `json:"chef,omitempty" gorm:"foreignKey:ChefID"`
}

func (KitchenOrder) TableName() string { return "kitchen_orders" }
