// Package reservations owns the reservation state machine, the overlap
// rules, and the table status changes tied to reservation transitions.
// Every transition appends an immutable audit row; the audit trail is
// part of the entity's behavior, not incidental logging.
package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/modules/tables"
	"tableside/internal/pkg/codes"
)

type Service struct {
	db              *gorm.DB
	resolver        *Resolver
	publisher       events.Publisher
	defaultDuration time.Duration
}

func NewService(db *gorm.DB, resolver *Resolver, publisher events.Publisher, defaultDuration time.Duration) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:              db,
		resolver:        resolver,
		publisher:       publisher,
		defaultDuration: defaultDuration,
	}
}

func (s *Service) ListAvailableTables(ctx context.Context, q AvailabilityQuery) ([]domain.Table, error) {
	return s.resolver.ListAvailableTables(ctx, q, s.defaultDuration)
}

// Create books a table for the requested window. Capacity and overlap
// checks run under the table row lock, so two concurrent bookings of the
// same slot resolve to one success and one conflict.
func (s *Service) Create(ctx context.Context, req CreateReservationRequest) (*domain.Reservation, error) {
	duration := req.DurationMin
	if duration <= 0 {
		duration = int(s.defaultDuration.Minutes())
	}
	start, end, err := parseWindow(req.Date, req.Time, duration)
	if err != nil {
		return nil, err
	}
	if start.Before(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: reservation start is in the past", ErrValidation)
	}

	var res domain.Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := tables.LockForUpdate(tx, req.TableID)
		if err != nil {
			return err
		}
		if err := checkTableFits(table, req.PartySize); err != nil {
			return err
		}

		overlapping, err := FindOverlapping(tx, table.ID, start, end, 0)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: table %d already booked %s-%s (reservation %s)",
				ErrOverlap, table.Number,
				overlapping[0].StartTime.Format("15:04"), overlapping[0].EndTime.Format("15:04"),
				overlapping[0].Code)
		}

		res = domain.Reservation{
			Code:           codes.ReservationCode(time.Now().UTC()),
			TableID:        table.ID,
			CustomerName:   req.CustomerName,
			CustomerPhone:  req.CustomerPhone,
			CustomerEmail:  req.CustomerEmail,
			StartTime:      start,
			EndTime:        end,
			DurationMin:    duration,
			PartySize:      req.PartySize,
			Status:         domain.ReservationPending,
			SpecialRequest: req.SpecialRequest,
		}
		if err := tx.Create(&res).Error; err != nil {
			return err
		}

		if err := appendAudit(tx, res.ID, "create", actorOrDefault(req.Actor), "", res.Status, map[string]any{
			"start_time": start,
			"end_time":   end,
			"party_size": req.PartySize,
		}); err != nil {
			return err
		}

		// A table already occupied by a walk-in keeps its status; the
		// reservation still books the future window.
		if table.Status == domain.TableAvailable {
			return tables.SetStatus(tx, table.ID, domain.TableReserved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.ReservationCreated, reservationEvent(&res))
	return s.Get(ctx, res.ID)
}

// Confirm acknowledges the booking; the table stays reserved.
func (s *Service) Confirm(ctx context.Context, id int64, actor string) (*domain.Reservation, error) {
	return s.transition(ctx, id, transitionRule{
		action: "confirm",
		actor:  actor,
		from:   []domain.ReservationStatus{domain.ReservationPending},
		to:     domain.ReservationConfirmed,
	})
}

// Seat marks the party arrived and the table occupied. Refused when the
// table is already occupied by an unrelated live order: a walk-in beat
// the reservation to the table and the floor staff must resolve it.
func (s *Service) Seat(ctx context.Context, id int64, actor string) (*domain.Reservation, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, transitionRule{
		action: "seat",
		actor:  actor,
		from:   []domain.ReservationStatus{domain.ReservationConfirmed},
		to:     domain.ReservationSeated,
		guard: func(table *domain.Table) error {
			if table.Status == domain.TableOccupied {
				return fmt.Errorf("%w: table %d has a live order", ErrTableOccupied, table.Number)
			}
			return nil
		},
		tableStatus: statusPtr(domain.TableOccupied),
		extra:       map[string]any{"seated_at": now},
	})
}

// MarkNoShow releases the table after the party failed to arrive.
func (s *Service) MarkNoShow(ctx context.Context, id int64, actor string) (*domain.Reservation, error) {
	return s.transition(ctx, id, transitionRule{
		action:       "no_show",
		actor:        actor,
		from:         []domain.ReservationStatus{domain.ReservationPending, domain.ReservationConfirmed},
		to:           domain.ReservationNoShow,
		releaseTable: true,
	})
}

// Complete closes a seated reservation. The table is not released here:
// the guests are still at it, and whichever order is open for the table
// releases it when it closes. Documented policy, see DESIGN.md.
func (s *Service) Complete(ctx context.Context, id int64, actor string) (*domain.Reservation, error) {
	return s.transition(ctx, id, transitionRule{
		action: "complete",
		actor:  actor,
		from:   []domain.ReservationStatus{domain.ReservationSeated},
		to:     domain.ReservationCompleted,
	})
}

// Cancel withdraws a pending or confirmed reservation and releases the
// table. A seated reservation cannot be cancelled; the order flow owns
// the table from that point.
func (s *Service) Cancel(ctx context.Context, id int64, actor, reason string) (*domain.Reservation, error) {
	return s.transition(ctx, id, transitionRule{
		action:       "cancel",
		actor:        actor,
		from:         []domain.ReservationStatus{domain.ReservationPending, domain.ReservationConfirmed},
		to:           domain.ReservationCancelled,
		releaseTable: true,
		extra:        map[string]any{"cancellation_reason": reason},
		details:      map[string]any{"reason": reason},
	})
}

// Update re-validates capacity and overlap against the proposed window,
// excluding the reservation's own booking. A table change releases the
// old table and reserves the new one inside the same transaction.
func (s *Service) Update(ctx context.Context, id int64, req UpdateReservationRequest) (*domain.Reservation, error) {
	var res domain.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrNotFound, id)
			}
			return err
		}
		if res.Status.IsTerminal() || res.Status == domain.ReservationSeated {
			return fmt.Errorf("%w: reservation %s is %s", ErrInvalidTransition, res.Code, res.Status)
		}

		proposed, changed, err := applyUpdate(&res, req)
		if err != nil {
			return err
		}

		// Lock tables in ascending id order so two concurrent updates
		// moving between the same pair of tables cannot deadlock.
		oldTableID := res.TableID
		lockIDs := []int64{oldTableID}
		if proposed.TableID != oldTableID {
			lockIDs = append(lockIDs, proposed.TableID)
			if lockIDs[0] > lockIDs[1] {
				lockIDs[0], lockIDs[1] = lockIDs[1], lockIDs[0]
			}
		}
		locked := map[int64]*domain.Table{}
		for _, tid := range lockIDs {
			t, err := tables.LockForUpdate(tx, tid)
			if err != nil {
				return err
			}
			locked[tid] = t
		}

		target := locked[proposed.TableID]
		if err := checkTableFits(target, proposed.PartySize); err != nil {
			return err
		}

		overlapping, err := FindOverlapping(tx, target.ID, proposed.StartTime, proposed.EndTime, res.ID)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: table %d already booked %s-%s (reservation %s)",
				ErrOverlap, target.Number,
				overlapping[0].StartTime.Format("15:04"), overlapping[0].EndTime.Format("15:04"),
				overlapping[0].Code)
		}

		if proposed.TableID != oldTableID {
			old := locked[oldTableID]
			if old.Status == domain.TableReserved {
				if err := tables.SetStatus(tx, old.ID, domain.TableAvailable); err != nil {
					return err
				}
			}
			if target.Status == domain.TableAvailable {
				if err := tables.SetStatus(tx, target.ID, domain.TableReserved); err != nil {
					return err
				}
			}
		}

		res = *proposed
		if err := tx.Save(&res).Error; err != nil {
			return err
		}

		return appendAudit(tx, res.ID, "update", actorOrDefault(req.Actor), res.Status, res.Status, changed)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, res.ID)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	var res domain.Reservation
	err := s.db.WithContext(ctx).
		Preload("Table").
		Preload("Audit", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&res, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &res, nil
}

// ListByDate returns reservations whose window starts on the given day.
func (s *Service) ListByDate(ctx context.Context, dateStr string) ([]domain.Reservation, error) {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, dateStr)
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	var out []domain.Reservation
	err = s.db.WithContext(ctx).
		Preload("Table").
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transitionRule describes one edge of the state machine: the legal
// source states, the target, and the table-side effect.
type transitionRule struct {
	action string
	actor  string
	from   []domain.ReservationStatus
	to     domain.ReservationStatus

	// guard runs with the table row locked, before any write.
	guard func(table *domain.Table) error
	// tableStatus, when set, overwrites the table status.
	tableStatus *domain.TableStatus
	// releaseTable returns the table to available, but only when this
	// reservation still holds it (status reserved); an occupied table
	// belongs to an order and is left alone.
	releaseTable bool

	extra   map[string]any
	details map[string]any
}

func (s *Service) transition(ctx context.Context, id int64, rule transitionRule) (*domain.Reservation, error) {
	var res domain.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrNotFound, id)
			}
			return err
		}

		table, err := tables.LockForUpdate(tx, res.TableID)
		if err != nil {
			return err
		}

		// Re-read under the table lock; a concurrent transition may
		// have moved the reservation first.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, id).Error; err != nil {
			return err
		}

		if !reservationStatusIn(res.Status, rule.from) {
			return fmt.Errorf("%w: cannot %s reservation %s in status %s", ErrInvalidTransition, rule.action, res.Code, res.Status)
		}
		if rule.guard != nil {
			if err := rule.guard(table); err != nil {
				return err
			}
		}

		fromStatus := res.Status
		res.Status = rule.to
		updates := map[string]any{"status": rule.to}
		for k, v := range rule.extra {
			updates[k] = v
		}
		if err := tx.Model(&domain.Reservation{}).Where("id = ?", res.ID).Updates(updates).Error; err != nil {
			return err
		}

		if rule.tableStatus != nil {
			if err := tables.SetStatus(tx, table.ID, *rule.tableStatus); err != nil {
				return err
			}
		} else if rule.releaseTable && table.Status == domain.TableReserved {
			if err := tables.SetStatus(tx, table.ID, domain.TableAvailable); err != nil {
				return err
			}
		}

		return appendAudit(tx, res.ID, rule.action, actorOrDefault(rule.actor), fromStatus, rule.to, rule.details)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.ReservationStatusChanged, reservationEvent(&res))
	return s.Get(ctx, res.ID)
}

// applyUpdate merges the request into a copy of the reservation and
// returns it with the changed-field snapshot for the audit row.
func applyUpdate(res *domain.Reservation, req UpdateReservationRequest) (*domain.Reservation, map[string]any, error) {
	proposed := *res
	changed := map[string]any{}

	dateStr := proposed.StartTime.Format("2006-01-02")
	timeStr := proposed.StartTime.Format("15:04")
	duration := proposed.DurationMin
	rewindow := false

	if req.Date != nil {
		dateStr = *req.Date
		changed["date"] = dateStr
		rewindow = true
	}
	if req.Time != nil {
		timeStr = *req.Time
		changed["time"] = timeStr
		rewindow = true
	}
	if req.DurationMin != nil {
		duration = *req.DurationMin
		changed["duration_min"] = duration
		rewindow = true
	}
	if rewindow {
		start, end, err := parseWindow(dateStr, timeStr, duration)
		if err != nil {
			return nil, nil, err
		}
		proposed.StartTime = start
		proposed.EndTime = end
		proposed.DurationMin = duration
	}
	if req.TableID != nil {
		proposed.TableID = *req.TableID
		changed["table_id"] = *req.TableID
	}
	if req.PartySize != nil {
		proposed.PartySize = *req.PartySize
		changed["party_size"] = *req.PartySize
	}
	if req.SpecialRequest != nil {
		proposed.SpecialRequest = *req.SpecialRequest
		changed["special_request"] = *req.SpecialRequest
	}

	if len(changed) == 0 {
		return nil, nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	return &proposed, changed, nil
}

func checkTableFits(table *domain.Table, partySize int) error {
	if !table.IsActive {
		return fmt.Errorf("%w: table %d", ErrTableInactive, table.Number)
	}
	if table.Status == domain.TableMaintenance {
		return fmt.Errorf("%w: table %d", ErrTableUnderMaintenance, table.Number)
	}
	if partySize > table.Capacity {
		return fmt.Errorf("%w: party of %d, table %d seats %d", ErrCapacityExceeded, partySize, table.Number, table.Capacity)
	}
	if table.MinCapacity != nil && partySize < *table.MinCapacity {
		return fmt.Errorf("%w: party of %d, table %d requires at least %d", ErrBelowMinCapacity, partySize, table.Number, *table.MinCapacity)
	}
	return nil
}

func appendAudit(tx *gorm.DB, reservationID int64, action, actor string, from, to domain.ReservationStatus, details map[string]any) error {
	row := domain.ReservationAudit{
		ReservationID: reservationID,
		Action:        action,
		Actor:         actor,
		FromStatus:    from,
		ToStatus:      to,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		row.Details = raw
	}
	return tx.Create(&row).Error
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return "staff"
	}
	return actor
}

func reservationStatusIn(s domain.ReservationStatus, set []domain.ReservationStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func statusPtr(s domain.TableStatus) *domain.TableStatus { return &s }

func reservationEvent(r *domain.Reservation) events.ReservationEvent {
	return events.ReservationEvent{
		ReservationID: r.ID,
		Code:          r.Code,
		TableID:       r.TableID,
		Status:        string(r.Status),
		StartTime:     r.StartTime,
		PartySize:     r.PartySize,
	}
}
