package models

import (
	"time"
)

type Comment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Cid          string     `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	DiscussionID uint       `gorm:"not null;index" json:"discussion_id"`
	Discussion   Discussion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID     *uint      `gorm:"index" json:"parent_id"` // nil for top-level comments
	Parent       *Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Score        int        `gorm:"default:0" json:"score"`
	ReplyCount   int        `gorm:"default:0" json:"reply_count"`
	Deleted      bool       `gorm:"default:false;index" json:"deleted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
