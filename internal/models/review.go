package models

import (
	"time"
)

// Review is one user's rating of an agent. At most one per (user, agent),
// enforced by the composite unique index.
type Review struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	AgentID uint   `gorm:"not null;uniqueIndex:idx_review_user_agent" json:"agent_id"`
	Agent   Agent  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_review_user_agent" json:"user_id"`
	User    User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Rating  int    `gorm:"not null" json:"rating"` // 1..5
	Content string `gorm:"type:text;not null" json:"content"`
	// Cached counters, reconciled by the scoring worker.
	Upvotes   int           `gorm:"default:0" json:"upvotes"`
	Downvotes int           `gorm:"default:0" json:"downvotes"`
	Images    []ReviewImage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images"`
	Replies   []ReviewReply `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"replies,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ReviewImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;index" json:"review_id"`
	URL       string    `gorm:"not null" json:"url"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewReply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;index" json:"review_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
