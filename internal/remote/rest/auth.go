package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/roach88/cafesync/internal/remote"
	"github.com/roach88/cafesync/internal/store"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (t tokenResponse) session(now time.Time) store.Session {
	s := store.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		UserID:       t.User.ID,
		Email:        t.User.Email,
	}
	if t.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

// SignIn exchanges email and password for a session and persists it.
// Subsequent requests carry the session's access token.
func (c *Client) SignIn(ctx context.Context, email, password string) (store.Session, error) {
	tok, err := c.token(ctx, "password", map[string]string{"email": email, "password": password})
	if err != nil {
		return store.Session{}, fmt.Errorf("sign in: %w", err)
	}
	sess := tok.session(c.clock.Now())
	if err := c.setSession(ctx, &sess); err != nil {
		return store.Session{}, err
	}
	c.logger.Info("signed in", "user", sess.Email)
	return sess, nil
}

// SignOut revokes the current session remotely and forgets it locally.
// The local session is cleared even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	sess, ok, err := c.Session(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	remoteErr := c.send(req, nil)

	if err := c.setSession(ctx, nil); err != nil {
		return errors.Join(remoteErr, err)
	}
	if remoteErr != nil {
		return fmt.Errorf("sign out: %w", remoteErr)
	}
	return nil
}

// Session returns the current session, loading it from the session store
// on first use.
func (c *Client) Session(ctx context.Context) (store.Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return store.Session{}, false, err
	}
	if c.session == nil {
		return store.Session{}, false, nil
	}
	return *c.session, true, nil
}

func (c *Client) loadLocked(ctx context.Context) error {
	if c.loaded || c.sessions == nil {
		c.loaded = true
		return nil
	}
	sess, ok, err := c.sessions.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if ok {
		c.session = &sess
	}
	c.loaded = true
	return nil
}

func (c *Client) setSession(ctx context.Context, sess *store.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setSessionLocked(ctx, sess)
}

func (c *Client) setSessionLocked(ctx context.Context, sess *store.Session) error {
	c.session = sess
	c.loaded = true
	if c.sessions == nil {
		return nil
	}
	if sess == nil {
		return c.sessions.ClearSession(ctx)
	}
	return c.sessions.SaveSession(ctx, *sess)
}

// accessToken returns the bearer token for data requests: the session's
// access token, refreshed when expired, or the anon key when signed out.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return "", err
	}
	if c.session == nil {
		return c.apiKey, nil
	}
	if !c.session.Expired(c.clock.Now()) {
		return c.session.AccessToken, nil
	}
	if c.session.RefreshToken == "" {
		c.logger.Warn("session expired without refresh token, signing out", "user", c.session.Email)
		return c.apiKey, c.setSessionLocked(ctx, nil)
	}

	tok, err := c.token(ctx, "refresh_token", map[string]string{"refresh_token": c.session.RefreshToken})
	if err != nil {
		if remote.IsUnavailable(err) {
			return "", fmt.Errorf("refresh session: %w", err)
		}
		c.logger.Warn("session refresh rejected, signing out", "user", c.session.Email, "error", err)
		return c.apiKey, c.setSessionLocked(ctx, nil)
	}
	sess := tok.session(c.clock.Now())
	if err := c.setSessionLocked(ctx, &sess); err != nil {
		return "", err
	}
	c.logger.Debug("session refreshed", "user", sess.Email)
	return sess.AccessToken, nil
}

// token calls the auth token endpoint. It bypasses do so it can run while
// the session lock is held.
func (c *Client) token(ctx context.Context, grant string, body map[string]string) (tokenResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return tokenResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type="+grant, bytes.NewReader(raw))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var tok tokenResponse
	if err := c.send(req, &tok); err != nil {
		return tokenResponse{}, err
	}
	if tok.AccessToken == "" {
		return tokenResponse{}, errors.New("auth response without access token")
	}
	return tok, nil
}
