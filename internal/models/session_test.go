package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionFlashes(t *testing.T) {
	s := &Session{}
	s.AddFlash(FlashSuccess, "saved")
	s.AddFlash(FlashError, "oops")

	flashes := s.TakeFlashes()
	require.Len(t, flashes, 2)
	require.Equal(t, Flash{Level: FlashSuccess, Message: "saved"}, flashes[0])
	require.Empty(t, s.TakeFlashes(), "flashes are shown once")
}

func TestSessionUser(t *testing.T) {
	s := &Session{}
	s.ClearUser()
	require.Nil(t, s.UserID)

	s.SetUser(42)
	require.NotNil(t, s.UserID)
	require.Equal(t, int64(42), *s.UserID)

	s.ClearUser()
	require.Nil(t, s.UserID)
}

func TestSessionIsExpired(t *testing.T) {
	require.True(t, (&Session{ExpiresAt: time.Now().Add(-time.Minute)}).IsExpired())
	require.False(t, (&Session{ExpiresAt: time.Now().Add(time.Minute)}).IsExpired())
}

func TestUserSameAs(t *testing.T) {
	a := &User{UserID: 1}
	require.True(t, a.SameAs(&User{UserID: 1}))
	require.False(t, a.SameAs(&User{UserID: 2}))
	require.False(t, a.SameAs(nil))
}
