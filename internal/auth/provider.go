// Package auth implements sign-in against a third-party identity
// provider and the browser sessions derived from it. There is exactly
// one provider abstraction; everything downstream depends on the
// Provider interface, never on a concrete SDK.
package auth

import (
	"context"
)

// Identity is the provider-owned view of a user, captured at sign-in.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	AvatarURL  string
}

// Provider is the identity-provider boundary: building the redirect URL
// and exchanging the callback code for an identity.
type Provider interface {
	// AuthCodeURL returns the provider redirect URL carrying the given
	// anti-forgery state.
	AuthCodeURL(state string) string

	// Exchange trades the callback authorization code for the
	// authenticated identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}
