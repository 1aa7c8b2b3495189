package models

import (
	"time"
)

// User represents a registered player
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email           string     `gorm:"uniqueIndex;size:150;not null" json:"email"`
	PasswordHash    string     `gorm:"column:password;size:256;not null" json:"-"`
	Token           *string    `gorm:"uniqueIndex;size:64" json:"-"`
	TokenExpiration *time.Time `json:"-"`
	CreatedAt       time.Time  `gorm:"column:date_created" json:"date_created"`
	UpdatedAt       time.Time  `json:"-"`

	// Relations
	Characters []Character `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// HasToken reports whether a bearer token is currently assigned.
// Token and TokenExpiration are always set or cleared together.
func (u *User) HasToken() bool {
	return u.Token != nil && u.TokenExpiration != nil
}

// SetToken assigns a token and its expiry
func (u *User) SetToken(token string, expiresAt time.Time) {
	u.Token = &token
	u.TokenExpiration = &expiresAt
}

// ClearToken removes the token and its expiry
func (u *User) ClearToken() {
	u.Token = nil
	u.TokenExpiration = nil
}

// UserResponse is the public representation of a user
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DateCreated time.Time `json:"date_created"`
}

// ToResponse builds the public representation
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DateCreated: u.CreatedAt,
	}
}
