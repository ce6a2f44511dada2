package orders

type CreateOrderRequest struct {
	TableID       int64  `json:"table_id" binding:"required"`
	CustomerName  string `json:"customer_name"`
	PartySize     int    `json:"party_size"`
	ReservationID *int64 `json:"reservation_id"`
	WaiterID      *int64 `json:"waiter_id"`
}

type AddItemRequest struct {
	MenuItemID     int64  `json:"menu_item_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gte=1"`
	SpecialRequest string `json:"special_request"`
}

// UpdateItemRequest carries only the fields a pending item may change;
// nil means "leave as is".
type UpdateItemRequest struct {
	Quantity       *int    `json:"quantity" binding:"omitempty,gte=1"`
	SpecialRequest *string `json:"special_request"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}
