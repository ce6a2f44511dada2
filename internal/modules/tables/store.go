// Package tables owns table occupancy state. Status writes happen only
// through the lifecycle engines, always inside their transaction and
// under the row lock taken by LockForUpdate.
package tables

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tableside/internal/domain"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, tableID int64) (*domain.Table, error) {
	var t domain.Table
	if err := s.db.WithContext(ctx).First(&t, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, tableID)
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetStatus(ctx context.Context, tableID int64) (domain.TableStatus, error) {
	t, err := s.Get(ctx, tableID)
	if err != nil {
		return "", err
	}
	return t.Status, nil
}

func (s *Store) List(ctx context.Context, floor int) ([]domain.Table, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if floor > 0 {
		q = q.Where("floor = ?", floor)
	}

	var out []domain.Table
	if err := q.Order("number").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LockForUpdate reads the table under SELECT ... FOR UPDATE inside the
// caller's transaction. Both lifecycle engines take this lock first, so
// every check-then-act on table occupancy is serialized per table.
func LockForUpdate(tx *gorm.DB, tableID int64) (*domain.Table, error) {
	var t domain.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, tableID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, tableID)
		}
		return nil, err
	}
	return &t, nil
}

// SetStatus unconditionally overwrites the table status. It participates
// in the caller's transaction and is not itself transactional.
func SetStatus(tx *gorm.DB, tableID int64, status domain.TableStatus) error {
	res := tx.Model(&domain.Table{}).
		Where("id = ?", tableID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, tableID)
	}
	return nil
}
