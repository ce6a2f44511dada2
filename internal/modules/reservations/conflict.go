package reservations

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tableside/internal/domain"
)

// Resolver answers the double-booking question: does any blocking
// reservation overlap a proposed window on a table.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// FindOverlapping returns reservations on the table whose window
// intersects [start, end). Half-open semantics: back-to-back windows do
// not overlap. Only pending and confirmed reservations block; a non-zero
// excludeID lets an update ignore the reservation being modified.
// Runs on the passed tx so the engines can call it under the table lock.
func FindOverlapping(tx *gorm.DB, tableID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	q := tx.
		Where("table_id = ?", tableID).
		Where("status IN ?", blockingStatusStrings()).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var out []domain.Reservation
	if err := q.Order("start_time").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAvailableTables returns the tables that could host the party in
// the requested window, smallest adequate table first so large tables
// stay free for large parties.
func (r *Resolver) ListAvailableTables(ctx context.Context, q AvailabilityQuery, defaultDuration time.Duration) ([]domain.Table, error) {
	duration := q.DurationMin
	if duration <= 0 {
		duration = int(defaultDuration.Minutes())
	}
	start, end, err := parseWindow(q.Date, q.Time, duration)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("status <> ?", domain.TableMaintenance).
		Where("capacity >= ?", q.PartySize)
	if q.Floor > 0 {
		db = db.Where("floor = ?", q.Floor)
	}

	var candidates []domain.Table
	if err := db.Order("capacity, number").Find(&candidates).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Table, 0, len(candidates))
	for _, t := range candidates {
		overlapping, err := FindOverlapping(r.db.WithContext(ctx), t.ID, start, end, 0)
		if err != nil {
			return nil, err
		}
		if len(overlapping) == 0 {
			out = append(out, t)
		}
	}
	return out, nil
}

func blockingStatusStrings() []string {
	out := make([]string, 0, len(domain.BlockingReservationStatuses))
	for _, s := range domain.BlockingReservationStatuses {
		out = append(out, string(s))
	}
	return out
}
