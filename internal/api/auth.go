package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/letsgo-ai/concierge/internal/auth"
	"github.com/letsgo-ai/concierge/internal/store"
)

// HandleSignIn starts the provider redirect flow.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AuthEnabled() {
		Error(w, http.StatusServiceUnavailable, "sign-in is not configured")
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		slog.Error("failed to generate oauth state", "error", err)
		Error(w, http.StatusInternalServerError, "failed to start sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.authSvc.SignInURL(state), http.StatusFound)
}

// HandleAuthCallback is the provider redirect target. New users are
// routed to onboarding, returning users to the landing page; failures
// send the user back to a retryable sign-in.
func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stateCookie, err := r.Cookie(auth.StateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != q.Get("state") {
		h.redirectAuthError(w, r, "invalid sign-in state")
		return
	}
	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: auth.StateCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	code := q.Get("code")
	if code == "" {
		h.redirectAuthError(w, r, "authentication was cancelled")
		return
	}

	user, session, err := h.authSvc.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Warn("auth callback failed", "error", err)
		h.redirectAuthError(w, r, "authentication failed, please try again")
		return
	}

	auth.SetSessionCookie(w, session, !h.cfg.IsDevelopment())

	target := "/"
	if user.IsNew() {
		target = "/onboarding"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) redirectAuthError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/?auth_error="+url.QueryEscape(message), http.StatusFound)
}

// HandleSignOut clears the local session and cookie.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := h.authSvc.SignOut(r.Context(), cookie.Value); err != nil {
			slog.Warn("sign-out failed", "error", err)
		}
	}
	auth.ClearSessionCookie(w)
	JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// HandleGetProfile returns the signed-in user.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		Error(w, http.StatusUnauthorized, "sign-in required")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// HandleUpdateProfile updates the editable profile fields.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		Error(w, http.StatusUnauthorized, "sign-in required")
		return
	}

	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		AvatarURL string `json:"profileImage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.authSvc.UpdateProfile(r.Context(), user.ExternalID, req.FirstName, req.LastName, req.AvatarURL)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.Error("profile update failed", "user_id", user.ExternalID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"user": updated})
}

// HandleDeleteAccount implements the two-phase account deletion: the
// first request arms a pending confirmation, only an immediate second
// request executes it. Any other navigation in between disarms it.
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	session := auth.SessionFromContext(r.Context())
	if user == nil || session == nil {
		Error(w, http.StatusUnauthorized, "sign-in required")
		return
	}

	executed, err := h.authSvc.RequestDeletion(r.Context(), session)
	if err != nil {
		slog.Error("account deletion failed", "user_id", user.ExternalID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	if !executed {
		JSON(w, http.StatusAccepted, map[string]string{"status": "confirmation_required"})
		return
	}

	auth.ClearSessionCookie(w)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
