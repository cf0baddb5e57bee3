package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"daily-diet/internal/model"
)

// SessionResolver binds callers to a session token. Tokens are self-asserted: a well-formed
// token is accepted as-is and registered lazily on the first write made under it.
type SessionResolver struct {
	sessions SessionStore
	newID    func() string
	now      func() time.Time
}

func NewSessionResolver(sessions SessionStore) *SessionResolver {
	return &SessionResolver{
		sessions: sessions,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Resolve returns the session carried by credential, or mints a new one when the credential
// is absent or malformed. isNew tells the caller to hand the token back to the client.
func (r *SessionResolver) Resolve(credential string) (sessionID string, isNew bool) {
	if id, ok := r.Lookup(credential); ok {
		return id, false
	}
	return r.newID(), true
}

// Lookup never mints. It reports false for an absent or malformed credential.
func (r *SessionResolver) Lookup(credential string) (string, bool) {
	if !wellFormedToken(credential) {
		return "", false
	}
	return credential, true
}

// Register persists the session record if it is not stored yet. It must complete before any
// meal referencing the session is written.
func (r *SessionResolver) Register(ctx context.Context, sessionID string) error {
	if !wellFormedToken(sessionID) {
		return ErrMissingCredential
	}
	if _, err := r.sessions.Register(ctx, &model.Session{ID: sessionID, CreatedAt: r.now().UTC()}); err != nil {
		return fmt.Errorf("register session failed: %w", err)
	}
	return nil
}

// wellFormedToken accepts only the canonical 36-character UUID form. uuid.Validate alone
// also accepts the braced, urn: and unhyphenated forms.
func wellFormedToken(token string) bool {
	return len(token) == 36 && uuid.Validate(token) == nil
}
