package store

import (
	"context"
	"time"
)

// Session is a persisted backend auth session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SaveSession persists the auth session, replacing any previous one.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	return s.PutJSON(ctx, KeySession, sess)
}

// LoadSession returns the persisted session. ok is false when none is stored.
func (s *Store) LoadSession(ctx context.Context) (sess Session, ok bool, err error) {
	ok, err = s.GetJSON(ctx, KeySession, &sess)
	return sess, ok, err
}

// ClearSession removes the persisted session.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.DeleteSlot(ctx, KeySession)
}
