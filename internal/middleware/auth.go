package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/handlers"
	"github.com/HammerMeetNail/pacebook/internal/logging"
	"github.com/HammerMeetNail/pacebook/internal/services"
)

// TokenVerifier checks a bearer credential and returns the caller it names.
type TokenVerifier interface {
	Verify(credential string) (uuid.UUID, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the verified caller in the request context otherwise.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		userID, err := m.verifier.Verify(token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				logging.Warn("Token verification failed", map[string]interface{}{"error": err.Error()})
			}
			writeError(w, http.StatusUnauthorized, authFailureMessage(err))
			return
		}

		noteCaller(r.Context(), userID)
		ctx := handlers.SetUserIDInContext(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authFailureMessage(err error) string {
	if errors.Is(err, services.ErrExpiredToken) {
		return "Token expired"
	}
	return "Invalid token"
}
