package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Bio       string    `gorm:"size:200" json:"bio"`
	Verified  bool      `gorm:"default:false" json:"verified"`
	Official  bool      `gorm:"default:false" json:"official"` // marketplace staff account
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorInfo is the author metadata embedded in comment and review payloads.
type AuthorInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
	Official bool   `json:"official"`
}

// Author projects the public subset of a user.
func (u *User) Author() AuthorInfo {
	return AuthorInfo{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
		Verified: u.Verified,
		Official: u.Official,
	}
}
