// Package menu is the lookup collaborator the order engine consults for
// price capture and availability.
package menu

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tableside/internal/domain"
)

var (
	ErrNotFound     = errors.New("menu item not found")
	ErrNotAvailable = errors.New("menu item not available")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &item, nil
}

// GetAvailableItem is the order-engine entry point: it refuses items
// taken off the menu.
func (s *Service) GetAvailableItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsAvailable {
		return nil, fmt.Errorf("%w: %q", ErrNotAvailable, item.Name)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, category string) ([]domain.MenuItem, error) {
	q := s.db.WithContext(ctx).Where("is_available = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var out []domain.MenuItem
	if err := q.Order("category, name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
