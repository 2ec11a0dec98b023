// Package api provides the HTTP handlers for the concierge server.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/letsgo-ai/concierge/internal/auth"
	"github.com/letsgo-ai/concierge/internal/config"
	"github.com/letsgo-ai/concierge/internal/conversation"
	"github.com/letsgo-ai/concierge/internal/domain"
	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize is the maximum allowed request body size (64KB);
// every accepted body is a short JSON document.
const maxRequestBodySize = 64 << 10

// EventsBackend is the slice of the concierge client the handlers call
// directly, outside of any conversation.
type EventsBackend interface {
	Events(ctx context.Context) ([]domain.EventRecord, error)
	RegisterWaitlist(ctx context.Context, email string) error
}

// Handler bundles the HTTP surface's dependencies.
type Handler struct {
	conversations *conversation.Manager
	backend       EventsBackend
	authSvc       *auth.Service
	cfg           *config.Config
}

// NewHandler creates a new Handler.
func NewHandler(conversations *conversation.Manager, backend EventsBackend, authSvc *auth.Service, cfg *config.Config) *Handler {
	return &Handler{
		conversations: conversations,
		backend:       backend,
		authSvc:       authSvc,
		cfg:           cfg,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.HandleLandingEvents)
		r.Post("/waitlist/register", h.HandleWaitlistRegister)
		r.Get("/calendar/google", h.HandleCalendarGoogle)
		r.Get("/calendar/event.ics", h.HandleCalendarICS)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", h.HandleCreateConversation)
			r.Get("/{id}", h.HandleGetConversation)
			r.Post("/{id}/messages", h.HandlePostMessage)
			r.Post("/{id}/page", h.HandleChangePage)
			r.Post("/{id}/tags/remove", h.HandleRemoveTag)
			r.Post("/{id}/tags/clear", h.HandleClearTags)
		})
	})

	r.Get("/auth/signin", h.HandleSignIn)
	r.Get("/authenticate", h.HandleAuthCallback)
	r.Post("/auth/signout", h.HandleSignOut)
	r.Get("/auth/users/me", h.HandleGetProfile)
	r.Put("/auth/users/me", h.HandleUpdateProfile)
	r.Delete("/auth/users/me", h.HandleDeleteAccount)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a size-capped JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
