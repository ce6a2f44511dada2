package domain

import "time"

type StaffRole string

const (
	RoleWaiter  StaffRole = "waiter"
	RoleChef    StaffRole = "chef"
	RoleManager StaffRole = "manager"
)

type Staff struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Role      StaffRole `json:"role" gorm:"type:varchar(16);not null;index"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }
