package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/pacebook/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationServiceInterface
}

func NewNotificationHandler(notificationService services.NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(r.Context(), userID)
	if err != nil {
		writeInternalError(w, "Error fetching notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// MarkRead handles PUT /notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notificationID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	err = h.notificationService.MarkRead(r.Context(), userID, notificationID)
	if errors.Is(err, services.ErrNotificationNotFound) {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error marking notification read", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}
