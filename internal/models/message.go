package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID               uuid.UUID        `json:"id"`
	ConversationID   uuid.UUID        `json:"conversationId"`
	ConversationType ConversationType `json:"conversationType"`
	SenderID         uuid.UUID        `json:"senderId"`
	Text             string           `json:"text"`
	CreatedAt        time.Time        `json:"createdAt"`
}
