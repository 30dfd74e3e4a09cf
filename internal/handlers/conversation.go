package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/pacebook/internal/services"
)

type ConversationHandler struct {
	conversationService services.ConversationServiceInterface
	messageService      services.MessageServiceInterface
}

func NewConversationHandler(conversationService services.ConversationServiceInterface, messageService services.MessageServiceInterface) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		messageService:      messageService,
	}
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// List handles GET /conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conversations, err := h.conversationService.ListConversations(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "Error fetching conversations", err)
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

// SendMessage handles POST /conversations/{receiverId}/messages.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	receiverID, err := parsePathID(r, "receiverId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.SendPrivate(r.Context(), userID, receiverID, req.Text)
	if errors.Is(err, services.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "Message text is required")
		return
	}
	if errors.Is(err, services.ErrCannotMessageSelf) {
		writeError(w, http.StatusBadRequest, "You cannot message yourself")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error sending message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ListMessages handles GET /conversations/{conversationId}/messages. The id may
// name a private or a group conversation.
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conversationID, err := parsePathID(r, "conversationId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	ref, err := h.conversationService.RequireParticipant(r.Context(), userID, conversationID)
	if errors.Is(err, services.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if errors.Is(err, services.ErrNotParticipant) {
		writeError(w, http.StatusForbidden, "You are not a participant in this conversation")
		return
	}
	if err != nil {
		writeInternalError(w, "Error resolving conversation", err)
		return
	}

	messages, err := h.messageService.List(r.Context(), ref)
	if err != nil {
		writeInternalError(w, "Error fetching messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Delete handles DELETE /conversations/{conversationId}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conversationID, err := parsePathID(r, "conversationId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	err = h.conversationService.DeleteConversation(r.Context(), userID, conversationID)
	if errors.Is(err, services.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if errors.Is(err, services.ErrNotParticipant) {
		writeError(w, http.StatusForbidden, "You are not a participant in this conversation")
		return
	}
	if err != nil {
		writeInternalError(w, "Error deleting conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Conversation deleted"})
}
