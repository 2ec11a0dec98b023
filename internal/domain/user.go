package domain

import (
	"time"
)

// NewUserWindow is the heuristic threshold for classifying an identity
// as freshly created: a user whose creation and last-update timestamps
// differ by less than this is routed to onboarding. It is a heuristic,
// not an authoritative flag.
const NewUserWindow = 5 * time.Minute

// User is an application user synced from the identity provider.
type User struct {
	ExternalID string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	AvatarURL  string    `json:"profileImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsNew reports whether the user looks freshly created.
func (u *User) IsNew() bool {
	return u.UpdatedAt.Sub(u.CreatedAt) < NewUserWindow
}

// Session is an authenticated browser session. DeleteArmedAt implements
// the two-phase confirmation for account deletion: the first delete
// request arms it, only a second request while armed executes, and any
// other navigation disarms it.
type Session struct {
	Token         string
	UserID        string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	DeleteArmedAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DeleteArmed reports whether a pending account deletion is still within
// the confirmation window.
func (s *Session) DeleteArmed(now time.Time, window time.Duration) bool {
	return !s.DeleteArmedAt.IsZero() && now.Sub(s.DeleteArmedAt) <= window
}
