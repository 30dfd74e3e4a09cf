package main

import (
	"net/http"

	"github.com/HammerMeetNail/pacebook/internal/handlers"
	"github.com/HammerMeetNail/pacebook/internal/logging"
	"github.com/HammerMeetNail/pacebook/internal/metrics"
	"github.com/HammerMeetNail/pacebook/internal/middleware"
)

type routerDeps struct {
	health        *handlers.HealthHandler
	friends       *handlers.FriendHandler
	conversations *handlers.ConversationHandler
	groups        *handlers.GroupHandler
	notifications *handlers.NotificationHandler
	users         *handlers.UserHandler
	auth          *middleware.AuthMiddleware
	idempotency   *middleware.Idempotency
	metrics       *metrics.Collector
	logger        *logging.Logger
	secure        bool
}

func newRouter(d routerDeps) http.Handler {
	protected := func(h http.HandlerFunc) http.Handler {
		return d.auth.RequireAuth(d.idempotency.Apply(h))
	}

	mux := http.NewServeMux()

	// Health checks and metrics (no auth)
	mux.HandleFunc("GET /health", d.health.Health)
	mux.HandleFunc("GET /ready", d.health.Ready)
	mux.HandleFunc("GET /live", d.health.Live)
	mux.Handle("GET /metrics", d.metrics.Handler())

	// Relationships
	mux.Handle("POST /friends/{friendId}", protected(d.friends.AddFriend))
	mux.Handle("GET /friends", protected(d.friends.ListFriends))
	mux.Handle("DELETE /friends/{friendId}", protected(d.friends.RemoveFriend))
	mux.Handle("POST /friend-request/{receiverId}", protected(d.friends.SendRequest))
	mux.Handle("POST /friend-request/{senderId}/accept", protected(d.friends.AcceptRequest))
	mux.Handle("POST /friend-request/{senderId}/decline", protected(d.friends.DeclineRequest))
	mux.Handle("DELETE /friend-request/{receiverId}/cancel", protected(d.friends.CancelRequest))
	mux.Handle("GET /relationships/{userId}", protected(d.friends.Relationship))

	// Private conversations
	mux.Handle("GET /conversations", protected(d.conversations.List))
	mux.Handle("POST /conversations/{receiverId}/messages", protected(d.conversations.SendMessage))
	mux.Handle("GET /conversations/{conversationId}/messages", protected(d.conversations.ListMessages))
	mux.Handle("DELETE /conversations/{conversationId}", protected(d.conversations.Delete))

	// Group conversations
	mux.Handle("POST /group-conversations", protected(d.groups.Create))
	mux.Handle("GET /group-conversations", protected(d.groups.List))
	mux.Handle("PUT /group-conversations/{id}", protected(d.groups.Update))
	mux.Handle("DELETE /group-conversations/{id}", protected(d.groups.Delete))
	mux.Handle("POST /group-conversations/{id}/messages", protected(d.groups.SendMessage))
	mux.Handle("GET /group-conversations/{id}/messages", protected(d.groups.ListMessages))

	// Notifications
	mux.Handle("GET /notifications", protected(d.notifications.List))
	mux.Handle("PUT /notifications/{id}/read", protected(d.notifications.MarkRead))

	// Users
	mux.Handle("GET /me", protected(d.users.Me))
	mux.Handle("GET /users", protected(d.users.Search))
	mux.Handle("GET /users/{id}", protected(d.users.Get))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = middleware.NewCacheControl().Apply(handler)
	handler = middleware.NewCompress().Apply(handler)
	handler = middleware.NewSecurityHeaders(d.secure).Apply(handler)
	handler = middleware.NewMetrics(d.metrics).Apply(handler)
	handler = middleware.NewRequestLogger(d.logger).Apply(handler)
	return handler
}
