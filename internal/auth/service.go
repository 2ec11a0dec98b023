package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/letsgo-ai/concierge/internal/domain"
	"github.com/letsgo-ai/concierge/internal/store"
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no active session")

// Service ties the identity provider to application users and sessions.
type Service struct {
	provider      Provider
	repo          store.Repository
	sessionTTL    time.Duration
	confirmWindow time.Duration
}

// NewService creates the auth service.
func NewService(provider Provider, repo store.Repository, sessionTTL, confirmWindow time.Duration) *Service {
	return &Service{
		provider:      provider,
		repo:          repo,
		sessionTTL:    sessionTTL,
		confirmWindow: confirmWindow,
	}
}

// SignInURL returns the provider redirect URL for the given state nonce.
func (s *Service) SignInURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback completes the redirect flow: it exchanges the code,
// syncs the identity into application storage (an idempotent upsert —
// repeated sign-ins with the same identity never create duplicates) and
// issues a session. The returned user reflects post-sync timestamps, so
// IsNew on it drives the onboarding redirect.
func (s *Service) HandleCallback(ctx context.Context, code string) (*domain.User, *domain.Session, error) {
	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("provider exchange: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ExternalID: identity.ExternalID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		AvatarURL:  identity.AvatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("sync user: %w", err)
	}

	// Re-read to pick up the preserved creation timestamp.
	user, err = s.repo.GetUser(ctx, identity.ExternalID)
	if err != nil {
		return nil, nil, fmt.Errorf("load synced user: %w", err)
	}

	session, err := s.createSession(ctx, user.ExternalID, now)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user signed in", "user_id", user.ExternalID, "new_user", user.IsNew())
	return user, session, nil
}

func (s *Service) createSession(ctx context.Context, userID string, now time.Time) (*domain.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// CurrentUser resolves a session token to its user. Expired or unknown
// tokens yield ErrNoSession.
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, ErrNoSession
	}
	session, err := s.repo.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if session.Expired(time.Now()) {
		_ = s.repo.DeleteSession(ctx, token)
		return nil, nil, ErrNoSession
	}

	user, err := s.repo.GetUser(ctx, session.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load session user: %w", err)
	}
	return user, session, nil
}

// SignOut destroys the session.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, token)
}

// UpdateProfile updates the editable profile fields of the session's
// user.
func (s *Service) UpdateProfile(ctx context.Context, userID, firstName, lastName, avatarURL string) (*domain.User, error) {
	if err := s.repo.UpdateProfile(ctx, userID, firstName, lastName, avatarURL); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, userID)
}

// RequestDeletion implements the two-phase destructive confirmation for
// account deletion. The first call arms the session's pending flag and
// returns executed=false; a second call while still armed deletes the
// user (and all their sessions) and returns executed=true. The flag is
// disarmed by DisarmDeletion on any other navigation.
func (s *Service) RequestDeletion(ctx context.Context, session *domain.Session) (executed bool, err error) {
	now := time.Now()
	if !session.DeleteArmed(now, s.confirmWindow) {
		if err := s.repo.SetDeleteArmed(ctx, session.Token, now); err != nil {
			return false, fmt.Errorf("arm deletion: %w", err)
		}
		return false, nil
	}

	if err := s.repo.DeleteUser(ctx, session.UserID); err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}
	slog.Info("account deleted", "user_id", session.UserID)
	return true, nil
}

// DisarmDeletion clears a pending deletion confirmation. Called on any
// navigation other than the confirming delete request.
func (s *Service) DisarmDeletion(ctx context.Context, session *domain.Session) {
	if session == nil || session.DeleteArmedAt.IsZero() {
		return
	}
	if err := s.repo.SetDeleteArmed(ctx, session.Token, time.Time{}); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("failed to disarm pending deletion", "user_id", session.UserID, "error", err)
	}
}

// GenerateState mints an anti-forgery nonce for the OAuth redirect.
func GenerateState() (string, error) {
	return generateToken()
}

func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
