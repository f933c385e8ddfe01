package authstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campusgate/internal/identity"
)

func authenticatedState() State {
	u := &identity.User{ID: "u1", Email: "a@b.com", Role: identity.RoleAdmin, EmailVerified: true}
	return Reduce(State{}, LoginSuccess{User: u, Token: "tok"})
}

func TestReduceLoginRoundTrip(t *testing.T) {
	s := Reduce(State{}, LoginStart{})
	assert.True(t, s.IsLoading)
	assert.Empty(t, s.Err)

	u := &identity.User{ID: "u1", AdminVerified: true}
	s = Reduce(s, LoginSuccess{User: u, Token: "tok"})
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.True(t, s.IsAdminVerified)
	assert.Equal(t, "tok", s.Token)
}

func TestReduceLoginFailureLeavesSessionFields(t *testing.T) {
	// A failure after an established session (the remote-logout edge case)
	// only records the error; the session fields stay as they were.
	s := authenticatedState()
	s = Reduce(s, LoginFailure{Message: "sign-out failed"})

	assert.True(t, s.IsAuthenticated)
	assert.NotNil(t, s.User)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, "sign-out failed", s.Err)
	assert.False(t, s.IsLoading)
}

func TestReduceLogoutResetsEverything(t *testing.T) {
	s := authenticatedState()
	s.Err = "stale"
	s.IsAdminVerified = true

	assert.Equal(t, State{}, Reduce(s, Logout{}))
}

func TestReduceAuthStateChangedOverwritesUnconditionally(t *testing.T) {
	// An out-of-band session report lands while a login is in flight. It
	// overwrites the session fields and does not touch the loading flag.
	s := Reduce(authenticatedState(), LoginStart{})

	s = Reduce(s, AuthStateChanged{User: nil, Token: ""})
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.True(t, s.IsLoading)

	other := &identity.User{ID: "u2", AdminVerified: true}
	s = Reduce(s, AuthStateChanged{User: other, Token: "tok2"})
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "u2", s.User.ID)
	assert.True(t, s.IsAdminVerified)
}

func TestReduceAdminVerifiedCopiesUser(t *testing.T) {
	original := &identity.User{ID: "u1"}
	s := Reduce(State{}, LoginSuccess{User: original, Token: "tok"})
	s = Reduce(s, AdminVerified{})

	assert.True(t, s.IsAdminVerified)
	assert.True(t, s.User.AdminVerified)
	assert.False(t, original.AdminVerified, "reducer must not mutate its input")
}

func TestReduceDoesNotMutateInputUser(t *testing.T) {
	u := &identity.User{ID: "u1"}
	s := Reduce(State{}, LoginSuccess{User: u, Token: "tok"})
	s.User.Email = "changed@b.com"
	assert.Empty(t, u.Email)
}
