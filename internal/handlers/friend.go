package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/models"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

type RelationshipResponse struct {
	UserID uuid.UUID        `json:"userId"`
	State  models.EdgeState `json:"state"`
}

// AddFriend handles POST /friends/{friendId}.
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	friendID, err := parsePathID(r, "friendId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.friendService.AddFriend(r.Context(), userID, friendID)
	if errors.Is(err, services.ErrCannotFriendSelf) {
		writeError(w, http.StatusBadRequest, "You cannot add yourself as a friend")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if errors.Is(err, services.ErrAlreadyFriends) {
		writeError(w, http.StatusConflict, "Already friends")
		return
	}
	if err != nil {
		writeInternalError(w, "Error adding friend", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend added successfully"})
}

// SendRequest handles POST /friend-request/{receiverId}.
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	receiverID, err := parsePathID(r, "receiverId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.friendService.SendRequest(r.Context(), userID, receiverID)
	if errors.Is(err, services.ErrCannotFriendSelf) {
		writeError(w, http.StatusBadRequest, "You cannot send a friend request to yourself")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if errors.Is(err, services.ErrAlreadyFriends) {
		writeError(w, http.StatusBadRequest, "You are already friends")
		return
	}
	if errors.Is(err, services.ErrRequestAlreadySent) || errors.Is(err, services.ErrFriendshipExists) {
		writeError(w, http.StatusBadRequest, "Friend request already sent")
		return
	}
	if errors.Is(err, services.ErrRequestAlreadyReceived) {
		writeError(w, http.StatusBadRequest, "This user already sent you a request")
		return
	}
	if err != nil {
		writeInternalError(w, "Error sending friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request sent"})
}

// ListFriends handles GET /friends. An optional ?fields=username,email limits
// the returned summary fields.
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error fetching friends", err)
		return
	}

	fields := parseFields(r.URL.Query().Get("fields"))
	projected := make([]map[string]any, 0, len(friends))
	for _, f := range friends {
		projected = append(projected, f.Project(fields))
	}
	writeJSON(w, http.StatusOK, projected)
}

// AcceptRequest handles POST /friend-request/{senderId}/accept.
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	senderID, err := parsePathID(r, "senderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.friendService.AcceptRequest(r.Context(), userID, senderID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if errors.Is(err, services.ErrNoPendingRequest) {
		writeError(w, http.StatusBadRequest, "No friend request from this user")
		return
	}
	if err != nil {
		writeInternalError(w, "Error accepting friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

// DeclineRequest handles POST /friend-request/{senderId}/decline.
func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	senderID, err := parsePathID(r, "senderId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.friendService.DeclineRequest(r.Context(), userID, senderID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error declining friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request declined"})
}

// CancelRequest handles DELETE /friend-request/{receiverId}/cancel.
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	receiverID, err := parsePathID(r, "receiverId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.friendService.CancelRequest(r.Context(), userID, receiverID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error canceling friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request canceled"})
}

// RemoveFriend handles DELETE /friends/{friendId}.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	friendID, err := parsePathID(r, "friendId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.friendService.RemoveFriend(r.Context(), userID, friendID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User or friend not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error removing friend", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend removed successfully"})
}

// Relationship handles GET /relationships/{userId}.
func (h *FriendHandler) Relationship(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	otherID, err := parsePathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	state, err := h.friendService.Relationship(r.Context(), userID, otherID)
	if err != nil {
		writeInternalError(w, "Error fetching relationship", err)
		return
	}

	writeJSON(w, http.StatusOK, RelationshipResponse{UserID: otherID, State: state})
}

func parseFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
