package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/models"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

type mockFriendService struct {
	SendRequestFunc    func(ctx context.Context, senderID, receiverID uuid.UUID) error
	AcceptRequestFunc  func(ctx context.Context, receiverID, senderID uuid.UUID) error
	DeclineRequestFunc func(ctx context.Context, receiverID, senderID uuid.UUID) error
	CancelRequestFunc  func(ctx context.Context, senderID, receiverID uuid.UUID) error
	AddFriendFunc      func(ctx context.Context, userID, friendID uuid.UUID) error
	RemoveFriendFunc   func(ctx context.Context, userID, friendID uuid.UUID) error
	ListFriendsFunc    func(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	RelationshipFunc   func(ctx context.Context, userID, otherID uuid.UUID) (models.EdgeState, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, senderID, receiverID)
	}
	return nil
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, receiverID, senderID uuid.UUID) error {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, receiverID, senderID)
	}
	return nil
}

func (m *mockFriendService) DeclineRequest(ctx context.Context, receiverID, senderID uuid.UUID) error {
	if m.DeclineRequestFunc != nil {
		return m.DeclineRequestFunc(ctx, receiverID, senderID)
	}
	return nil
}

func (m *mockFriendService) CancelRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, senderID, receiverID)
	}
	return nil
}

func (m *mockFriendService) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if m.AddFriendFunc != nil {
		return m.AddFriendFunc(ctx, userID, friendID)
	}
	return nil
}

func (m *mockFriendService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if m.RemoveFriendFunc != nil {
		return m.RemoveFriendFunc(ctx, userID, friendID)
	}
	return nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return []models.UserSummary{}, nil
}

func (m *mockFriendService) Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.EdgeState, error) {
	if m.RelationshipFunc != nil {
		return m.RelationshipFunc(ctx, userID, otherID)
	}
	return models.EdgeStateNone, nil
}

type mockNotificationService struct {
	ListFunc     func(ctx context.Context, receiverID uuid.UUID) ([]models.Notification, error)
	MarkReadFunc func(ctx context.Context, receiverID, notificationID uuid.UUID) error
}

func (m *mockNotificationService) List(ctx context.Context, receiverID uuid.UUID) ([]models.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, receiverID)
	}
	return []models.Notification{}, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, receiverID, notificationID uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, receiverID, notificationID)
	}
	return nil
}

type mockConversationService struct {
	ListConversationsFunc       func(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error)
	CreateGroupFunc             func(ctx context.Context, creatorID uuid.UUID, params models.CreateGroupParams) (*models.GroupConversation, error)
	ListGroupsFunc              func(ctx context.Context, userID uuid.UUID) ([]models.GroupConversation, error)
	UpdateGroupFunc             func(ctx context.Context, userID, groupID uuid.UUID, params models.UpdateGroupParams) (*models.GroupConversation, error)
	DeleteGroupFunc             func(ctx context.Context, userID, groupID uuid.UUID) error
	DeleteConversationFunc      func(ctx context.Context, userID, conversationID uuid.UUID) error
	RequireParticipantFunc      func(ctx context.Context, userID, id uuid.UUID) (*models.ConversationRef, error)
	RequireGroupParticipantFunc func(ctx context.Context, userID, groupID uuid.UUID) (*models.ConversationRef, error)
}

func (m *mockConversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, userID)
	}
	return []models.ConversationSummary{}, nil
}

func (m *mockConversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, params models.CreateGroupParams) (*models.GroupConversation, error) {
	if m.CreateGroupFunc != nil {
		return m.CreateGroupFunc(ctx, creatorID, params)
	}
	return &models.GroupConversation{}, nil
}

func (m *mockConversationService) ListGroups(ctx context.Context, userID uuid.UUID) ([]models.GroupConversation, error) {
	if m.ListGroupsFunc != nil {
		return m.ListGroupsFunc(ctx, userID)
	}
	return []models.GroupConversation{}, nil
}

func (m *mockConversationService) UpdateGroup(ctx context.Context, userID, groupID uuid.UUID, params models.UpdateGroupParams) (*models.GroupConversation, error) {
	if m.UpdateGroupFunc != nil {
		return m.UpdateGroupFunc(ctx, userID, groupID, params)
	}
	return &models.GroupConversation{}, nil
}

func (m *mockConversationService) DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	if m.DeleteGroupFunc != nil {
		return m.DeleteGroupFunc(ctx, userID, groupID)
	}
	return nil
}

func (m *mockConversationService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, userID, conversationID)
	}
	return nil
}

func (m *mockConversationService) RequireParticipant(ctx context.Context, userID, id uuid.UUID) (*models.ConversationRef, error) {
	if m.RequireParticipantFunc != nil {
		return m.RequireParticipantFunc(ctx, userID, id)
	}
	return &models.ConversationRef{ID: id, Type: models.ConversationTypePrivate}, nil
}

func (m *mockConversationService) RequireGroupParticipant(ctx context.Context, userID, groupID uuid.UUID) (*models.ConversationRef, error) {
	if m.RequireGroupParticipantFunc != nil {
		return m.RequireGroupParticipantFunc(ctx, userID, groupID)
	}
	return &models.ConversationRef{ID: groupID, Type: models.ConversationTypeGroup}, nil
}

type mockMessageService struct {
	SendPrivateFunc func(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*models.Message, error)
	SendToGroupFunc func(ctx context.Context, senderID, groupID uuid.UUID, text string) (*models.Message, error)
	ListFunc        func(ctx context.Context, ref *models.ConversationRef) ([]models.Message, error)
}

func (m *mockMessageService) SendPrivate(ctx context.Context, senderID, receiverID uuid.UUID, text string) (*models.Message, error) {
	if m.SendPrivateFunc != nil {
		return m.SendPrivateFunc(ctx, senderID, receiverID, text)
	}
	return &models.Message{}, nil
}

func (m *mockMessageService) SendToGroup(ctx context.Context, senderID, groupID uuid.UUID, text string) (*models.Message, error) {
	if m.SendToGroupFunc != nil {
		return m.SendToGroupFunc(ctx, senderID, groupID, text)
	}
	return &models.Message{}, nil
}

func (m *mockMessageService) List(ctx context.Context, ref *models.ConversationRef) ([]models.Message, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ref)
	}
	return []models.Message{}, nil
}

type mockIdentityService struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	SearchFunc  func(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error)
}

func (m *mockIdentityService) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockIdentityService) Search(ctx context.Context, currentUserID uuid.UUID, query string) ([]models.UserSummary, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, currentUserID, query)
	}
	return []models.UserSummary{}, nil
}

var (
	_ services.FriendServiceInterface       = (*mockFriendService)(nil)
	_ services.NotificationServiceInterface = (*mockNotificationService)(nil)
	_ services.ConversationServiceInterface = (*mockConversationService)(nil)
	_ services.MessageServiceInterface      = (*mockMessageService)(nil)
	_ services.IdentityServiceInterface     = (*mockIdentityService)(nil)
)
