// Package kitchen couples confirmed orders to the kitchen fulfillment
// record and runs the kitchen board workflow. The record's status gates
// order cancellation: past pending, the food is on the fire.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tableside/internal/domain"
	"tableside/internal/events"
)

type Adapter struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewAdapter(db *gorm.DB, publisher events.Publisher) *Adapter {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Adapter{db: db, publisher: publisher}
}

// OnOrderConfirmed creates the fulfillment record, exactly once per
// order; the unique index on order_id absorbs a duplicate confirm and
// returns the existing record instead.
func (a *Adapter) OnOrderConfirmed(ctx context.Context, orderID int64) (*domain.KitchenOrder, error) {
	ko := domain.KitchenOrder{
		OrderID: orderID,
		Status:  domain.KitchenPending,
	}

	if err := a.db.WithContext(ctx).Create(&ko).Error; err != nil {
		if isUniqueViolation(err) {
			return a.getByOrderID(ctx, orderID)
		}
		return nil, err
	}
	return &ko, nil
}

// CanCancel reports whether the parent order may still be cancelled. It
// locks the kitchen row inside the caller's transaction so the answer
// stays true until that transaction commits. No record means the kitchen
// never saw the order.
func (a *Adapter) CanCancel(tx *gorm.DB, orderID int64) (bool, error) {
	var ko domain.KitchenOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&ko).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return ko.Status == domain.KitchenPending, nil
}

// OnOrderCancelled cancels a still-pending kitchen record inside the
// caller's transaction. The CanCancel gate must have passed first.
func (a *Adapter) OnOrderCancelled(tx *gorm.DB, orderID int64) error {
	return tx.Model(&domain.KitchenOrder{}).
		Where("order_id = ? AND status = ?", orderID, domain.KitchenPending).
		Update("status", domain.KitchenCancelled).Error
}

// StartPreparing assigns a chef and moves pending -> preparing. From
// this point the parent order can no longer be cancelled.
func (a *Adapter) StartPreparing(ctx context.Context, kitchenOrderID, chefID int64) (*domain.KitchenOrder, error) {
	var ko *domain.KitchenOrder
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ko, err = lockKitchenOrder(tx, kitchenOrderID)
		if err != nil {
			return err
		}
		if ko.Status != domain.KitchenPending {
			return fmt.Errorf("%w: kitchen order %d is %s", ErrInvalidTransition, ko.ID, ko.Status)
		}

		var chef domain.Staff
		if err := tx.Where("id = ? AND role = ? AND is_active = ?", chefID, domain.RoleChef, true).
			First(&chef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrChefNotFound, chefID)
			}
			return err
		}

		now := time.Now().UTC()
		ko.Status = domain.KitchenPreparing
		ko.ChefID = &chefID
		ko.StartedAt = &now
		return tx.Model(&domain.KitchenOrder{}).Where("id = ?", ko.ID).
			Updates(map[string]any{
				"status":     ko.Status,
				"chef_id":    chefID,
				"started_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return ko, nil
}

// MarkReady finishes preparation and advances the parent order
// confirmed -> ready in the same transaction.
func (a *Adapter) MarkReady(ctx context.Context, kitchenOrderID int64) (*domain.KitchenOrder, error) {
	var ko *domain.KitchenOrder
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ko, err = lockKitchenOrder(tx, kitchenOrderID)
		if err != nil {
			return err
		}
		if ko.Status != domain.KitchenPreparing {
			return fmt.Errorf("%w: kitchen order %d is %s", ErrInvalidTransition, ko.ID, ko.Status)
		}

		now := time.Now().UTC()
		ko.Status = domain.KitchenReady
		ko.CompletedAt = &now
		if err := tx.Model(&domain.KitchenOrder{}).Where("id = ?", ko.ID).
			Updates(map[string]any{"status": ko.Status, "completed_at": now}).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", ko.OrderID, domain.OrderConfirmed).
			Update("status", domain.OrderReady).Error
	})
	if err != nil {
		return nil, err
	}

	a.publisher.Publish(events.KitchenOrderReady, events.KitchenEvent{
		KitchenOrderID: ko.ID,
		OrderID:        ko.OrderID,
		Status:         string(ko.Status),
	})
	return ko, nil
}

// ListQueue returns the open kitchen work, oldest first.
func (a *Adapter) ListQueue(ctx context.Context) ([]domain.KitchenOrder, error) {
	var out []domain.KitchenOrder
	err := a.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items").
		Where("status IN ?", []string{string(domain.KitchenPending), string(domain.KitchenPreparing)}).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) getByOrderID(ctx context.Context, orderID int64) (*domain.KitchenOrder, error) {
	var ko domain.KitchenOrder
	err := a.db.WithContext(ctx).Where("order_id = ?", orderID).First(&ko).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &ko, nil
}

func lockKitchenOrder(tx *gorm.DB, id int64) (*domain.KitchenOrder, error) {
	var ko domain.KitchenOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ko, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &ko, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite reports constraint failures as plain strings
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique")
}
