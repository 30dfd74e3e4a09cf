package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/models"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

type GroupHandler struct {
	conversationService services.ConversationServiceInterface
	messageService      services.MessageServiceInterface
}

func NewGroupHandler(conversationService services.ConversationServiceInterface, messageService services.MessageServiceInterface) *GroupHandler {
	return &GroupHandler{
		conversationService: conversationService,
		messageService:      messageService,
	}
}

type CreateGroupRequest struct {
	Name         string   `json:"name" validate:"max=200"`
	Participants []string `json:"participants" validate:"dive,uuid"`
	GroupImage   *string  `json:"groupImage,omitempty" validate:"omitempty,max=500"`
}

type UpdateGroupRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	GroupImage *string `json:"groupImage,omitempty" validate:"omitempty,max=500"`
}

// Create handles POST /group-conversations.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	participants := make([]uuid.UUID, 0, len(req.Participants))
	for _, raw := range req.Participants {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "participants must contain valid ids")
			return
		}
		participants = append(participants, id)
	}

	group, err := h.conversationService.CreateGroup(r.Context(), userID, models.CreateGroupParams{
		Name:         req.Name,
		Participants: participants,
		GroupImage:   req.GroupImage,
	})
	if errors.Is(err, services.ErrInvalidGroup) {
		writeError(w, http.StatusBadRequest, "Group name and at least 2 other participants are required")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "One or more participants not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error creating group", err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

// List handles GET /group-conversations.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groups, err := h.conversationService.ListGroups(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "Error fetching groups", err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// Update handles PUT /group-conversations/{id}.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groupID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req UpdateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.conversationService.UpdateGroup(r.Context(), userID, groupID, models.UpdateGroupParams{
		Name:       req.Name,
		GroupImage: req.GroupImage,
	})
	if !h.handleGroupError(w, err, "Error updating group") {
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Delete handles DELETE /group-conversations/{id}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groupID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	err = h.conversationService.DeleteGroup(r.Context(), userID, groupID)
	if !h.handleGroupError(w, err, "Error deleting group") {
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Group deleted"})
}

// SendMessage handles POST /group-conversations/{id}/messages.
func (h *GroupHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groupID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.SendToGroup(r.Context(), userID, groupID, req.Text)
	if errors.Is(err, services.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "Message text is required")
		return
	}
	if !h.handleGroupError(w, err, "Error sending group message") {
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ListMessages handles GET /group-conversations/{id}/messages.
func (h *GroupHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	groupID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	ref, err := h.conversationService.RequireGroupParticipant(r.Context(), userID, groupID)
	if !h.handleGroupError(w, err, "Error resolving group") {
		return
	}

	messages, err := h.messageService.List(r.Context(), ref)
	if err != nil {
		writeInternalError(w, "Error fetching group messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// handleGroupError writes the response for err and reports whether the caller
// should continue.
func (h *GroupHandler) handleGroupError(w http.ResponseWriter, err error, logMsg string) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, services.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "Group not found")
	case errors.Is(err, services.ErrNotGroupCreator):
		writeError(w, http.StatusForbidden, "Only the group creator can do this")
	case errors.Is(err, services.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "You are not a member of this group")
	case errors.Is(err, services.ErrInvalidGroup):
		writeError(w, http.StatusBadRequest, "Group name cannot be empty")
	default:
		writeInternalError(w, logMsg, err)
	}
	return false
}
