package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/letsgo-ai/concierge/internal/backend"
)

// HandleWaitlistRegister adds an email to the launch waitlist. A
// duplicate email is a warning, not a failure, and must stay
// distinguishable so the client does not navigate to the success route.
func (h *Handler) HandleWaitlistRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		Error(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	err := h.backend.RegisterWaitlist(r.Context(), email)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, map[string]string{"status": "registered"})
	case errors.Is(err, backend.ErrAlreadyRegistered):
		JSON(w, http.StatusConflict, map[string]string{"status": "already_registered"})
	default:
		slog.Warn("waitlist registration failed", "error", err)
		Error(w, http.StatusBadGateway, "registration failed, please try again")
	}
}
