package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/pacebook/internal/models"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

type UserHandler struct {
	identityService services.IdentityServiceInterface
}

func NewUserHandler(identityService services.IdentityServiceInterface) *UserHandler {
	return &UserHandler{identityService: identityService}
}

type UserSearchResponse struct {
	Users []models.UserSummary `json:"users"`
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	id, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	identity, err := h.identityService.GetByID(r.Context(), id)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error fetching user", err)
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	identity, err := h.identityService.GetByID(r.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeInternalError(w, "Error fetching current user", err)
		return
	}

	writeJSON(w, http.StatusOK, identity)
}

// Search handles GET /users?username=. Without a username it lists other users.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("username"))
	if len(query) == 1 {
		writeJSON(w, http.StatusOK, UserSearchResponse{Users: []models.UserSummary{}})
		return
	}

	users, err := h.identityService.Search(r.Context(), userID, query)
	if err != nil {
		writeInternalError(w, "Error searching users", err)
		return
	}

	writeJSON(w, http.StatusOK, UserSearchResponse{Users: users})
}
