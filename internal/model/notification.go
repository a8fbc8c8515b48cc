package model

import (
	"time"
)

// Notification is written only by the fanout engine and mutated only to
// flip IsRead.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_notifications_user_id" json:"user_id"`
	Verb      string    `gorm:"type:varchar(255);not null" json:"verb"`
	ProjectID *uint     `gorm:"index:idx_notifications_project_id" json:"project_id"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index:idx_created_at" json:"created_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
