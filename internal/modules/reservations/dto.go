package reservations

import (
	"fmt"
	"time"
)

type CreateReservationRequest struct {
	TableID        int64  `json:"table_id" binding:"required"`
	CustomerName   string `json:"customer_name" binding:"required"`
	CustomerPhone  string `json:"customer_phone" binding:"required"`
	CustomerEmail  string `json:"customer_email"`
	Date           string `json:"date" binding:"required"` // 2006-01-02
	Time           string `json:"time" binding:"required"` // 15:04
	DurationMin    int    `json:"duration_min"`
	PartySize      int    `json:"party_size" binding:"required,gte=1"`
	SpecialRequest string `json:"special_request"`
	Actor          string `json:"actor"`
}

// UpdateReservationRequest changes only the fields present; nil leaves a
// field untouched. Changing date/time/table/party re-runs the capacity
// and overlap checks against the proposed window.
type UpdateReservationRequest struct {
	TableID        *int64  `json:"table_id"`
	Date           *string `json:"date"`
	Time           *string `json:"time"`
	DurationMin    *int    `json:"duration_min"`
	PartySize      *int    `json:"party_size" binding:"omitempty,gte=1"`
	SpecialRequest *string `json:"special_request"`
	Actor          string  `json:"actor"`
}

type TransitionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

type AvailabilityQuery struct {
	Date        string `form:"date" binding:"required"`
	Time        string `form:"time" binding:"required"`
	PartySize   int    `form:"party_size" binding:"required,gte=1"`
	DurationMin int    `form:"duration_min"`
	Floor       int    `form:"floor"`
}

// parseWindow combines date + time into the half-open reservation window
// [start, start+duration).
func parseWindow(dateStr, timeStr string, durationMin int) (start, end time.Time, err error) {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, dateStr)
	}
	clock, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid time %q", ErrValidation, timeStr)
	}
	if durationMin <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}

	start = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
	end = start.Add(time.Duration(durationMin) * time.Minute)
	return start, end, nil
}
