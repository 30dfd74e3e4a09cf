package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

// IdentityServiceInterface defines the contract for identity lookups.
type IdentityServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	Search(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error)
}

// TokenVerifierInterface defines the contract for bearer credential checks.
type TokenVerifierInterface interface {
	Verify(credential string) (uuid.UUID, error)
	Issue(userID uuid.UUID, ttl time.Duration) (string, error)
}

// FriendServiceInterface defines the contract for relationship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error
	AcceptRequest(ctx context.Context, receiverID, senderID uuid.UUID) error
	DeclineRequest(ctx context.Context, receiverID, senderID uuid.UUID) error
	CancelRequest(ctx context.Context, senderID, receiverID uuid.UUID) error
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.EdgeState, error)
}

// NotificationServiceInterface defines the contract for notification operations used by handlers.
type NotificationServiceInterface interface {
	List(ctx context.Context, receiverID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, receiverID, notificationID uuid.UUID) error
}

// ConversationServiceInterface defines the contract for conversation operations.
type ConversationServiceInterface interface {
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	CreateGroup(ctx context.Context, creatorID uuid.UUID, params models.CreateGroupParams) (*models.GroupConversation, error)
	ListGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupConversation, error)
	UpdateGroup(ctx context.Context, userID, groupID uuid.UUID, params models.UpdateGroupParams) (*models.GroupConversation, error)
	DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error
	DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error
	RequireParticipant(ctx context.Context, userID, id uuid.UUID) (*models.ConversationRef, error)
	RequireGroupParticipant(ctx context.Context, userID, groupID uuid.UUID) (*models.ConversationRef, error)
}

// MessageServiceInterface defines the contract for message operations.
type MessageServiceInterface interface {
	SendPrivate(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*models.Message, error)
	SendToGroup(ctx context.Context, senderID, groupID uuid.UUID, text string) (*models.Message, error)
	List(ctx context.Context, ref *models.ConversationRef) ([]models.Message, error)
}

// Recorder receives domain events for metrics.
type Recorder interface {
	FriendTransition(op string, err error)
	MessageSent(kind models.ConversationType)
}

type noopRecorder struct{}

func (noopRecorder) FriendTransition(string, error)      {}
func (noopRecorder) MessageSent(models.ConversationType) {}

// Compile-time interface satisfaction checks.
var (
	_ IdentityServiceInterface     = (*IdentityService)(nil)
	_ TokenVerifierInterface       = (*TokenVerifier)(nil)
	_ FriendServiceInterface       = (*FriendService)(nil)
	_ NotificationServiceInterface = (*NotificationService)(nil)
	_ ConversationServiceInterface = (*ConversationService)(nil)
	_ MessageServiceInterface      = (*MessageService)(nil)
	_ notificationWriter           = (*NotificationService)(nil)
)
