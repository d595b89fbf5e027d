package models

import "time"

type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	HashedPassword  string    `json:"-"`
	Name            *string   `json:"name"`
	IsEmailVerified bool      `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// Email code purposes. Codes are single use and expire a few minutes after
// they are issued.
const (
	EmailCodePurposeReset = "reset_password"
	EmailCodePurposeLogin = "login"
)

type EmailCode struct {
	ID        int64
	Email     string
	Purpose   string
	CodeHash  string
	IsUsed    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}
