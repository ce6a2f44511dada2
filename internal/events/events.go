// Package events carries domain events from the lifecycle engines to
// notification and real-time consumers. Engines call Publish and never
// touch transport connections themselves.
package events

import (
	"log"
	"time"
)

const (
	OrderConfirmed    = "order.confirmed"
	OrderCancelled    = "order.cancelled"
	OrderItemsChanged = "order.items-changed"
	OrderCompleted    = "order.completed"

	ReservationCreated       = "reservation.created"
	ReservationStatusChanged = "reservation.status-changed"

	KitchenOrderReady = "kitchen.order-ready"
)

// OrderEvent carries the affected order's identity and new state.
type OrderEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TableID     int64  `json:"table_id"`
	Status      string `json:"status"`
	FinalAmount int64  `json:"final_amount"`
	Reason      string `json:"reason,omitempty"`
}

type ReservationEvent struct {
	ReservationID int64     `json:"reservation_id"`
	Code          string    `json:"code"`
	TableID       int64     `json:"table_id"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	PartySize     int       `json:"party_size"`
}

type KitchenEvent struct {
	KitchenOrderID int64  `json:"kitchen_order_id"`
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
}

// Publisher delivers an event to interested consumers. Delivery is
// best-effort: engines publish after their transaction commits and never
// fail an operation because a consumer is unreachable.
type Publisher interface {
	Publish(event string, payload any)
}

// Fanout forwards each event to every sink.
type Fanout []Publisher

func (f Fanout) Publish(event string, payload any) {
	for _, p := range f {
		p.Publish(event, payload)
	}
}

// Nop discards events; used in tests and when no transport is configured.
type Nop struct{}

func (Nop) Publish(string, any) {}

// LogPublisher writes events to the process log.
type LogPublisher struct{}

func (LogPublisher) Publish(event string, payload any) {
	log.Printf("event=%s payload=%+v", event, payload)
}
