package models

import (
	"time"
)

type Discussion struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Did     string `gorm:"uniqueIndex;size:8;not null" json:"did"`
	AgentID uint   `gorm:"not null;index" json:"agent_id"`
	Agent   Agent  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	// Cached sum of vote values; authoritative value is maintained by the
	// scoring worker from the votes table.
	Score          int       `gorm:"default:0" json:"score"`
	Pinned         bool      `gorm:"default:false" json:"pinned"`
	CommentCount   int       `gorm:"default:0" json:"comment_count"`
	Views          int       `gorm:"default:0" json:"views"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastActivityAt time.Time `gorm:"index" json:"last_activity_at"`
}
