// Package notifications persists domain events as a staff activity feed.
// The service is wired into the event fanout as a sink, so every engine
// transition lands here without the engines knowing about it.
package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"tableside/internal/domain"
	"tableside/internal/events"
)

var ErrNotFound = errors.New("notification not found")

var titles = map[string]string{
	events.OrderConfirmed:           "Order confirmed",
	events.OrderCancelled:           "Order cancelled",
	events.OrderItemsChanged:        "Order items changed",
	events.OrderCompleted:           "Order completed",
	events.ReservationCreated:       "Reservation created",
	events.ReservationStatusChanged: "Reservation updated",
	events.KitchenOrderReady:        "Kitchen order ready",
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Publish implements events.Publisher. Failures are logged and swallowed:
// a broken feed must never fail the operation that emitted the event.
func (s *Service) Publish(event string, payload any) {
	title, ok := titles[event]
	if !ok {
		title = event
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notifications: marshal %s: %v", event, err)
		return
	}
	row := domain.Notification{
		Event: event,
		Title: title,
		Data:  string(data),
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("notifications: persist %s: %v", event, err)
	}
}

// List returns the newest notifications plus the unread count.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []domain.Notification
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	var unread int64
	err = s.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("read_at IS NULL").
		Count(&unread).Error
	if err != nil {
		return nil, 0, err
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", sql.NullTime{Time: time.Now().UTC(), Valid: true})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := s.db.WithContext(ctx).Model(&domain.Notification{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
	}
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("read_at IS NULL").
		Update("read_at", sql.NullTime{Time: time.Now().UTC(), Valid: true}).Error
}
