package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipStatusPending FriendshipStatus = "pending"
	FriendshipStatusFriends FriendshipStatus = "friends"
)

// EdgeState is the relationship between an ordered pair (A, B).
type EdgeState string

const (
	EdgeStateNone        EdgeState = "none"
	EdgeStatePendingAtoB EdgeState = "pending_sent"
	EdgeStatePendingBtoA EdgeState = "pending_received"
	EdgeStateFriends     EdgeState = "friends"
)

// FriendEdge is the single stored record for an unordered pair of identities.
// UserLow always sorts before UserHigh.
type FriendEdge struct {
	UserLow     uuid.UUID        `json:"userLow"`
	UserHigh    uuid.UUID        `json:"userHigh"`
	Status      FriendshipStatus `json:"status"`
	RequestedBy *uuid.UUID       `json:"requestedBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// OrderPair sorts two ids by byte order, which matches Postgres uuid ordering.
func OrderPair(a, b uuid.UUID) (low, high uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// StateFor derives the state seen from a towards b. A nil edge is EdgeStateNone.
func (e *FriendEdge) StateFor(a, b uuid.UUID) EdgeState {
	if e == nil {
		return EdgeStateNone
	}
	low, high := OrderPair(a, b)
	if e.UserLow != low || e.UserHigh != high {
		return EdgeStateNone
	}
	switch e.Status {
	case FriendshipStatusFriends:
		return EdgeStateFriends
	case FriendshipStatusPending:
		if e.RequestedBy != nil && *e.RequestedBy == a {
			return EdgeStatePendingAtoB
		}
		return EdgeStatePendingBtoA
	default:
		return EdgeStateNone
	}
}
