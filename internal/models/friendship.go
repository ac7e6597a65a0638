package models

import "time"

// FriendshipStatus tracks the lifecycle of a friend request.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipDeclined FriendshipStatus = "DECLINED"
)

// Friendship is stored once per pair. The requester/addressee ordering
// matters for responding to a request but not for accepted-friend lookups.
type Friendship struct {
	ID          string           `db:"id" json:"id"`
	RequesterID string           `db:"requester_id" json:"requester_id"`
	AddresseeID string           `db:"addressee_id" json:"addressee_id"`
	Status      FriendshipStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Friend is an accepted friend as seen from one side of the pair.
type Friend struct {
	UserID   string `db:"user_id" json:"user_id"`
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
}
