package models

import (
	"time"
)

// Agent is the marketplace listing discussions and reviews attach to.
type Agent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Aid         string    `gorm:"uniqueIndex;size:8;not null" json:"aid"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Website     string    `json:"website"`
	Views       int       `gorm:"default:0" json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
