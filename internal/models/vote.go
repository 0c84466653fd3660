package models

import (
	"time"
)

// VoteTarget discriminates what a discussion-side vote points at.
type VoteTarget string

const (
	VoteTargetDiscussion VoteTarget = "discussion"
	VoteTargetComment    VoteTarget = "comment"
)

// Vote is one row per (user, target). Value is +1 or -1; a retracted vote is
// deleted, never stored as 0.
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_vote_user_target" json:"user_id"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_vote_user_target" json:"target_id"`
	TargetType VoteTarget `gorm:"type:varchar(16);not null;uniqueIndex:idx_vote_user_target" json:"target_type"`
	Value      int        `gorm:"not null" json:"value"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ReviewVote is the separate ledger for review votes. Reviews keep distinct
// upvote/downvote counters instead of a net score, but the row shape is the
// same one-vote-per-user rule.
type ReviewVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_vote_user" json:"user_id"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_vote_user" json:"review_id"`
	Review    Review    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
