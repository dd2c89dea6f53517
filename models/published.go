package models

import "time"

// Published carries the flags shared by admin-managed and authored content.
type Published struct {
	IsPublished bool      `gorm:"not null;index" json:"is_published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
