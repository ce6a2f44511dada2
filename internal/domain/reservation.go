package domain

import (
	"encoding/json"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

// BlockingReservationStatuses are the statuses considered by the overlap
// check; cancelled, completed and no_show reservations never block a slot.
var BlockingReservationStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed}

func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled || s == ReservationNoShow
}

// Reservation holds a table for the half-open window
// [StartTime, StartTime+DurationMinutes).
type Reservation struct {
	ID            int64             `json:"id" gorm:"primaryKey"`
	Code          string            `json:"code" gorm:"type:varchar(32);not null;uniqueIndex"`
	TableID       int64             `json:"table_id" gorm:"not null;index"`
	CustomerName  string            `json:"customer_name" gorm:"not null" validate:"required"`
	CustomerPhone string            `json:"customer_phone" gorm:"not null" validate:"required"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	StartTime     time.Time         `json:"start_time" gorm:"not null;index"`
	EndTime       time.Time         `json:"end_time" gorm:"not null"`
	DurationMin   int               `json:"duration_min" gorm:"not null"`
	PartySize     int               `json:"party_size" gorm:"not null" validate:"gte=1"`
	Status        ReservationStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`

	SpecialRequest     string     `json:"special_request,omitempty" gorm:"type:text"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`
	SeatedAt           *time.Time `json:"seated_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Table *Table             `json:"table,omitempty" gorm:"foreignKey:TableID"`
	Audit []ReservationAudit `json:"audit,omitempty" gorm:"foreignKey:ReservationID"`
}

func (Reservation) TableName() string { return "reservations" }

// Overlaps reports whether the reservation window intersects [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// ReservationAudit is the append-only trail written on every transition.
// Rows are never updated or deleted.
type ReservationAudit struct {
	ID            int64             `json:"id" gorm:"primaryKey"`
	ReservationID int64             `json:"reservation_id" gorm:"not null;index"`
	Action        string            `json:"action" gorm:"type:varchar(32);not null"`
	Actor         string            `json:"actor" gorm:"type:varchar(64);not null"`
	FromStatus    ReservationStatus `json:"from_status" gorm:"type:varchar(16)"`
	ToStatus      ReservationStatus `json:"to_status" gorm:"type:varchar(16)"`
	Details       json.RawMessage   `json:"details,omitempty" gorm:"type:text"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (ReservationAudit) TableName() string { return "reservation_audit" }
