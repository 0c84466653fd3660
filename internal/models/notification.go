package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeDiscussionComment NotificationType = "discussion_comment"
	NotificationTypeCommentReply      NotificationType = "comment_reply"
	NotificationTypeReviewReply       NotificationType = "review_reply"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"` // receiver
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ActorID   *uint            `gorm:"index" json:"actor_id"` // who triggered it
	Actor     User             `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"actor"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Reference string           `gorm:"size:255" json:"reference"` // public id of the target resource
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
