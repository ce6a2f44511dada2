package domain

import (
	"database/sql"
	"time"
)

// Notification is one entry in the staff activity feed. Rows are written
// by the event sink, never by handlers directly.
type Notification struct {
	ID        int64        `gorm:"primaryKey" json:"id"`
	Event     string       `gorm:"index" json:"event"`
	Title     string       `json:"title"`
	Data      string       `gorm:"type:jsonb" json:"data"`
	ReadAt    sql.NullTime `json:"read_at"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt.Valid
}

func (n *Notification) TableName() string {
	return "notifications"
}
