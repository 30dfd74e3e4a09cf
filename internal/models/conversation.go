package models

import (
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationTypePrivate ConversationType = "private"
	ConversationTypeGroup   ConversationType = "group"
)

const (
	DefaultGroupImage = "/uploads/defaultgroup.png"
	// MinGroupInvitees is the number of participants a creator must name besides themselves.
	MinGroupInvitees = 2
)

// Conversation is a private thread between exactly two identities.
type Conversation struct {
	ID              uuid.UUID `json:"id"`
	ParticipantLow  uuid.UUID `json:"-"`
	ParticipantHigh uuid.UUID `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Participants returns both members of the conversation.
func (c *Conversation) Participants() []uuid.UUID {
	return []uuid.UUID{c.ParticipantLow, c.ParticipantHigh}
}

// HasParticipant reports whether id is one of the two members.
func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return c.ParticipantLow == id || c.ParticipantHigh == id
}

type GroupConversation struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	GroupImage   string        `json:"groupImage"`
	CreatedBy    uuid.UUID     `json:"createdBy"`
	Participants []UserSummary `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// HasParticipant reports whether id is among the resolved participants.
func (g *GroupConversation) HasParticipant(id uuid.UUID) bool {
	for _, p := range g.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

type CreateGroupParams struct {
	Name         string
	Participants []uuid.UUID
	GroupImage   *string
}

type UpdateGroupParams struct {
	Name       *string
	GroupImage *string
}

// ConversationSummary is one entry of a caller's conversation list, tagged with its kind.
type ConversationSummary struct {
	ID           uuid.UUID        `json:"id"`
	Type         ConversationType `json:"type"`
	Name         string           `json:"name,omitempty"`
	GroupImage   string           `json:"groupImage,omitempty"`
	CreatedBy    *uuid.UUID       `json:"createdBy,omitempty"`
	Participants []UserSummary    `json:"participants"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ConversationRef identifies a private or group thread and its members.
type ConversationRef struct {
	ID           uuid.UUID
	Type         ConversationType
	CreatedBy    *uuid.UUID
	Participants []uuid.UUID
}

// HasParticipant reports whether id is a member of the referenced thread.
func (r *ConversationRef) HasParticipant(id uuid.UUID) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}
