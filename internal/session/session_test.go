package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAccount(t *testing.T) {
	s := New()

	_, ok := s.Account()
	assert.False(t, ok, "inactive session must not expose an account")

	s.Begin("0xAbC0000000000000000000000000000000000001")
	account, ok := s.Account()
	require.True(t, ok)
	assert.True(t, account.Equal("0xabc0000000000000000000000000000000000001"))

	s.End()
	_, ok = s.Account()
	assert.False(t, ok)
}

func TestGuardInvalidatedByEnd(t *testing.T) {
	s := New()
	s.Begin("0xAbC0000000000000000000000000000000000001")

	g := s.Guard()
	assert.True(t, g.Valid())

	s.End()
	assert.False(t, g.Valid(), "guard from ended session must be invalid")
}

func TestGuardInvalidatedByReconnect(t *testing.T) {
	s := New()
	s.Begin("0xAbC0000000000000000000000000000000000001")
	g := s.Guard()

	s.End()
	s.Begin("0xAbC0000000000000000000000000000000000002")

	assert.False(t, g.Valid(), "guard from a previous connection must stay invalid")
	assert.True(t, s.Guard().Valid())
}

func TestGuardFromInactiveSession(t *testing.T) {
	s := New()
	g := s.Guard()
	assert.False(t, g.Valid())

	// activating later must not retroactively validate the old guard
	s.Begin("0xAbC0000000000000000000000000000000000001")
	assert.False(t, g.Valid())

	var zero Guard
	assert.False(t, zero.Valid())
}
