package models

import "time"

// Friend is one direction of a friendship. Rows are always written in pairs,
// one per direction, so listing a user's friends is a single-column lookup.
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	CreatedAt time.Time
}

// FriendView joins a friendship row with the friend's profile for responses.
type FriendView struct {
	ID          int64   `json:"id"`
	FriendID    int64   `json:"friend_id"`
	FriendEmail string  `json:"friend_email"`
	FriendName  *string `json:"friend_name"`
}
