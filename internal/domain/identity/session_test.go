package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAdmin, ParseRole(" ADMIN "))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole(""))
}

func TestSession_IsAdmin(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.IsAdmin())
	assert.True(t, (&Session{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&Session{Role: RoleUser}).IsAdmin())
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Session{}).IsExpired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).IsExpired(now))
	assert.True(t, (&Session{ExpiresAt: now}).IsExpired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Minute)}).IsExpired(now))
}
