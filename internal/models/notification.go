package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeFriendRequest NotificationType = "friendRequest"
	// NotificationTypeMessage is reserved; nothing emits it yet.
	NotificationTypeMessage NotificationType = "message"
)

type Notification struct {
	ID         uuid.UUID        `json:"id"`
	Type       NotificationType `json:"type"`
	SenderID   uuid.UUID        `json:"-"`
	Sender     *UserSummary     `json:"sender,omitempty"`
	ReceiverID uuid.UUID        `json:"receiver"`
	Message    string           `json:"message"`
	IsRead     bool             `json:"isRead"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type EmitNotificationParams struct {
	Type       NotificationType
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Message    string
}
