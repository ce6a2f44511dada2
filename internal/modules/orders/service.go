// Package orders owns the order state machine: item mutation rules,
// totals consistency, the one-live-order-per-table rule, and the table
// status changes tied to order transitions. Every state change runs in
// one transaction; the table row lock serializes check-then-act against
// the reservation engine.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/modules/menu"
	"tableside/internal/modules/tables"
	"tableside/internal/pkg/codes"
)

// KitchenCoupler is the kitchen-side collaborator. Creation after
// confirmation is best-effort; the cancel gate and cancellation run
// inside the order's own transaction.
type KitchenCoupler interface {
	OnOrderConfirmed(ctx context.Context, orderID int64) (*domain.KitchenOrder, error)
	CanCancel(tx *gorm.DB, orderID int64) (bool, error)
	OnOrderCancelled(tx *gorm.DB, orderID int64) error
}

type Service struct {
	db         *gorm.DB
	menu       *menu.Service
	kitchen    KitchenCoupler
	publisher  events.Publisher
	taxRateBps int64
}

func NewService(db *gorm.DB, menuSvc *menu.Service, kitchen KitchenCoupler, publisher events.Publisher, taxRateBps int64) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:         db,
		menu:       menuSvc,
		kitchen:    kitchen,
		publisher:  publisher,
		taxRateBps: taxRateBps,
	}
}

// CreateOrder opens a walk-in or reservation-linked order and marks the
// table occupied. Refused when the table is occupied, under maintenance,
// or already has a live order.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if req.PartySize <= 0 {
		req.PartySize = 1
	}

	var order domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := tables.LockForUpdate(tx, req.TableID)
		if err != nil {
			return err
		}
		if !table.IsActive {
			return fmt.Errorf("%w: table %d", ErrTableInactive, table.Number)
		}
		if table.Status == domain.TableMaintenance {
			return fmt.Errorf("%w: table %d", ErrTableUnderMaintenance, table.Number)
		}

		var linked *domain.Reservation
		if req.ReservationID != nil {
			var err error
			linked, err = validateLinkedReservation(tx, *req.ReservationID, table.ID)
			if err != nil {
				return err
			}
		}

		// An occupied table only accepts the order of the reservation
		// that was just seated at it; anyone else has to wait.
		if table.Status == domain.TableOccupied {
			if linked == nil || linked.Status != domain.ReservationSeated {
				return fmt.Errorf("%w: table %d", ErrTableOccupied, table.Number)
			}
		}

		var live int64
		if err := tx.Model(&domain.Order{}).
			Where("table_id = ?", table.ID).
			Where("status IN ?", activeStatusStrings()).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return fmt.Errorf("%w: table %d", ErrActiveOrderExists, table.Number)
		}

		order = domain.Order{
			OrderNumber:   codes.OrderNumber(time.Now().UTC()),
			TableID:       table.ID,
			ReservationID: req.ReservationID,
			WaiterID:      req.WaiterID,
			CustomerName:  req.CustomerName,
			PartySize:     req.PartySize,
			Status:        domain.OrderPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tables.SetStatus(tx, table.ID, domain.TableOccupied)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, order.ID)
}

func (s *Service) AddItem(ctx context.Context, orderID int64, req AddItemRequest) (*domain.Order, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	menuItem, err := s.menu.GetAvailableItem(ctx, req.MenuItemID)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = lockOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderPending {
			return fmt.Errorf("%w: order %s is %s", ErrOrderNotEditable, order.OrderNumber, order.Status)
		}

		item := domain.OrderItem{
			OrderID:        order.ID,
			MenuItemID:     menuItem.ID,
			Quantity:       req.Quantity,
			UnitPrice:      menuItem.Price, // captured now, immutable afterwards
			LineTotal:      menuItem.Price * int64(req.Quantity),
			SpecialRequest: req.SpecialRequest,
			Status:         domain.OrderItemPending,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		return s.refreshTotals(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishItemsChanged(order)
	return s.GetOrder(ctx, orderID)
}

func (s *Service) UpdateItem(ctx context.Context, orderID, itemID int64, req UpdateItemRequest) (*domain.Order, error) {
	if req.Quantity != nil && *req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderPending {
			return fmt.Errorf("%w: order %s is %s", ErrOrderNotEditable, order.OrderNumber, order.Status)
		}

		item, err := findItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}

		if req.Quantity != nil {
			item.Quantity = *req.Quantity
			item.LineTotal = item.UnitPrice * int64(item.Quantity)
		}
		if req.SpecialRequest != nil {
			item.SpecialRequest = *req.SpecialRequest
		}
		if err := tx.Save(item).Error; err != nil {
			return err
		}

		return s.refreshTotals(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishItemsChanged(order)
	return s.GetOrder(ctx, orderID)
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderPending {
			return fmt.Errorf("%w: order %s is %s", ErrOrderNotEditable, order.OrderNumber, order.Status)
		}

		item, err := findItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return err
		}

		return s.refreshTotals(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishItemsChanged(order)
	return s.GetOrder(ctx, orderID)
}

// CancelItem marks a single unserved item cancelled with a reason. Unlike
// RemoveItem it is also allowed after confirmation, as long as the item
// has not been served.
func (s *Service) CancelItem(ctx context.Context, orderID, itemID int64, reason string) (*domain.Order, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderPending && order.Status != domain.OrderConfirmed {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		item, err := findItem(tx, order.ID, itemID)
		if err != nil {
			return err
		}
		if item.Status == domain.OrderItemServed {
			return fmt.Errorf("%w: item %d", ErrItemAlreadyServed, item.ID)
		}

		item.Status = domain.OrderItemCancelled
		item.CancellationReason = reason
		if err := tx.Save(item).Error; err != nil {
			return err
		}

		return s.refreshTotals(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishItemsChanged(order)
	return s.GetOrder(ctx, orderID)
}

// ConfirmOrder moves pending -> confirmed and hands the order to the
// kitchen. The kitchen record is created after commit, best-effort: a
// kitchen outage must not void the sale.
func (s *Service) ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderPending {
			return fmt.Errorf("%w: cannot confirm order %s in status %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		var itemCount int64
		if err := tx.Model(&domain.OrderItem{}).
			Where("order_id = ? AND status <> ?", order.ID, domain.OrderItemCancelled).
			Count(&itemCount).Error; err != nil {
			return err
		}
		if itemCount == 0 {
			return fmt.Errorf("%w: order %s", ErrEmptyOrder, order.OrderNumber)
		}

		now := time.Now().UTC()
		order.Status = domain.OrderConfirmed
		order.ConfirmedAt = &now
		return tx.Model(&domain.Order{}).Where("id = ?", order.ID).
			Updates(map[string]any{"status": order.Status, "confirmed_at": now}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.kitchen != nil {
		if _, err := s.kitchen.OnOrderConfirmed(ctx, order.ID); err != nil {
			log.Printf("kitchen record for order %s not created: %v", order.OrderNumber, err)
		}
	}

	s.publisher.Publish(events.OrderConfirmed, orderEvent(order))
	return s.GetOrder(ctx, orderID)
}

// CancelOrder cancels a pending or confirmed order and releases the
// table. Refused once the kitchen has started preparing.
func (s *Service) CancelOrder(ctx context.Context, orderID int64, reason string) (*domain.Order, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	}

	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrderWithTable(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderPending && order.Status != domain.OrderConfirmed {
			return fmt.Errorf("%w: cannot cancel order %s in status %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		if s.kitchen != nil {
			ok, err := s.kitchen.CanCancel(tx, order.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order %s", ErrKitchenStarted, order.OrderNumber)
			}
			if err := s.kitchen.OnOrderCancelled(tx, order.ID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		order.Status = domain.OrderCancelled
		order.CancellationReason = reason
		order.CancelledAt = &now
		if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).
			Updates(map[string]any{
				"status":              order.Status,
				"cancellation_reason": reason,
				"cancelled_at":        now,
			}).Error; err != nil {
			return err
		}

		return tables.SetStatus(tx, order.TableID, domain.TableAvailable)
	})
	if err != nil {
		return nil, err
	}

	ev := orderEvent(order)
	ev.Reason = reason
	s.publisher.Publish(events.OrderCancelled, ev)
	return s.GetOrder(ctx, orderID)
}

// MarkServing records food hitting the table: ready -> serving.
func (s *Service) MarkServing(ctx context.Context, orderID int64) (*domain.Order, error) {
	err := s.transition(ctx, orderID, []domain.OrderStatus{domain.OrderReady}, domain.OrderServing, nil)
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// CompleteOrder closes the order and releases the table.
func (s *Service) CompleteOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrderWithTable(tx, orderID)
		if err != nil {
			return err
		}
		from := []domain.OrderStatus{domain.OrderConfirmed, domain.OrderReady, domain.OrderServing}
		if !statusIn(order.Status, from) {
			return fmt.Errorf("%w: cannot complete order %s in status %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		now := time.Now().UTC()
		order.Status = domain.OrderCompleted
		order.CompletedAt = &now
		if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).
			Updates(map[string]any{"status": order.Status, "completed_at": now}).Error; err != nil {
			return err
		}

		return tables.SetStatus(tx, order.TableID, domain.TableAvailable)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.OrderCompleted, orderEvent(order))
	return s.GetOrder(ctx, orderID)
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Table").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("status IN ?", activeStatusStrings()).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transition is the generic guarded status move for transitions that do
// not touch the table row.
func (s *Service) transition(ctx context.Context, orderID int64, from []domain.OrderStatus, to domain.OrderStatus, extra map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrderForUpdate(tx, orderID)
		if err != nil {
			return err
		}
		if !statusIn(order.Status, from) {
			return fmt.Errorf("%w: order %s is %s, wanted %s", ErrInvalidTransition, order.OrderNumber, order.Status, to)
		}

		updates := map[string]any{"status": to}
		for k, v := range extra {
			updates[k] = v
		}
		return tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(updates).Error
	})
}

// refreshTotals recomputes and persists the monetary fields from the
// surviving items; called inside the mutation's transaction so totals
// and items commit together.
func (s *Service) refreshTotals(tx *gorm.DB, order *domain.Order) error {
	var items []domain.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	t := CalculateTotals(items, s.taxRateBps)
	order.Subtotal = t.Subtotal
	order.TaxAmount = t.TaxAmount
	order.FinalAmount = t.FinalAmount

	return tx.Model(&domain.Order{}).Where("id = ?", order.ID).
		Updates(map[string]any{
			"subtotal":     t.Subtotal,
			"tax_amount":   t.TaxAmount,
			"final_amount": t.FinalAmount,
		}).Error
}

func (s *Service) publishItemsChanged(order *domain.Order) {
	s.publisher.Publish(events.OrderItemsChanged, orderEvent(order))
}

func lockOrderForUpdate(tx *gorm.DB, orderID int64) (*domain.Order, error) {
	var order domain.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

// lockOrderWithTable locks the table row before the order row. All
// operations that change table occupancy take locks in this same order,
// table first, so the two engines cannot deadlock.
func lockOrderWithTable(tx *gorm.DB, orderID int64) (*domain.Order, error) {
	var order domain.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	if _, err := tables.LockForUpdate(tx, order.TableID); err != nil {
		return nil, err
	}

	// Re-read under the order lock; status may have moved before the
	// table lock was granted.
	return lockOrderForUpdate(tx, orderID)
}

func findItem(tx *gorm.DB, orderID, itemID int64) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrItemNotFound, itemID)
		}
		return nil, err
	}
	return &item, nil
}

func validateLinkedReservation(tx *gorm.DB, reservationID, tableID int64) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := tx.First(&res, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %d", ErrValidation, reservationID)
		}
		return nil, err
	}
	if res.TableID != tableID {
		return nil, fmt.Errorf("%w: reservation %s is for a different table", ErrValidation, res.Code)
	}
	if res.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %s is %s", ErrValidation, res.Code, res.Status)
	}
	return &res, nil
}

func statusIn(s domain.OrderStatus, set []domain.OrderStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func activeStatusStrings() []string {
	out := make([]string, 0, len(domain.ActiveOrderStatuses))
	for _, s := range domain.ActiveOrderStatuses {
		out = append(out, string(s))
	}
	return out
}

func orderEvent(o *domain.Order) events.OrderEvent {
	return events.OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		TableID:     o.TableID,
		Status:      string(o.Status),
		FinalAmount: o.FinalAmount,
	}
}
