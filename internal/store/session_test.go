package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, ok, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		UserID:       "user-1",
		Email:        "kasir@cafe.id",
		ExpiresAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveSession(ctx, want))

	got, ok, err := s.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.Email, got.Email)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.ClearSession(ctx))
	_, ok, err = s.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_Expired(t *testing.T) {
	exp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sess := Session{ExpiresAt: exp}

	assert.False(t, sess.Expired(exp.Add(-time.Second)))
	assert.True(t, sess.Expired(exp))
	assert.False(t, Session{}.Expired(exp), "zero expiry never expires")
}
