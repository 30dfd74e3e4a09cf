package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/logging"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeInternalError logs the cause and hides it from the client.
func writeInternalError(w http.ResponseWriter, msg string, err error) {
	logging.Error(msg, map[string]interface{}{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// requireUserID returns the caller or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func parsePathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}
