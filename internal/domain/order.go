package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderReady     OrderStatus = "ready"
	OrderServing   OrderStatus = "serving"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// ActiveOrderStatuses are the non-terminal statuses; at most one order in
// one of these states may reference a table at any time.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderReady, OrderServing}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type OrderItemStatus string

const (
	OrderItemPending   OrderItemStatus = "pending"
	OrderItemServed    OrderItemStatus = "served"
	OrderItemCancelled OrderItemStatus = "cancelled"
)

// Order monetary fields are minor currency units and always equal the
// totals recomputed from the current item set.
type Order struct {
	ID            int64       `json:"id" gorm:"primaryKey"`
	OrderNumber   string      `json:"order_number" gorm:"type:varchar(32);not null;uniqueIndex"`
	TableID       int64       `json:"table_id" gorm:"not null;index"`
	ReservationID *int64      `json:"reservation_id,omitempty" gorm:"index"`
	WaiterID      *int64      `json:"waiter_id,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	PartySize     int         `json:"party_size" gorm:"not null;default:1"`
	Status        OrderStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`

	Subtotal    int64 `json:"subtotal" gorm:"not null;default:0"`
	TaxAmount   int64 `json:"tax_amount" gorm:"not null;default:0"`
	FinalAmount int64 `json:"final_amount" gorm:"not null;default:0"`

	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Table  *Table      `json:"table,omitempty" gorm:"foreignKey:TableID"`
	Waiter *Staff      `json:"waiter,omitempty" gorm:"foreignKey:WaiterID"`
	Items  []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem captures the menu price at add time; UnitPrice is immutable
// afterwards even if the menu changes.
type OrderItem struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	OrderID        int64           `json:"order_id" gorm:"not null;index"`
	MenuItemID     int64           `json:"menu_item_id" gorm:"not null"`
	Quantity       int             `json:"quantity" gorm:"not null" validate:"gte=1"`
	UnitPrice      int64           `json:"unit_price" gorm:"not null"`
	LineTotal      int64           `json:"line_total" gorm:"not null"`
	SpecialRequest string          `json:"special_request,omitempty" gorm:"type:text"`
	Status         OrderItemStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`

	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	MenuItem *MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
}

func (OrderItem) TableName() string { return "order_items" }
