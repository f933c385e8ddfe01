// Package authstate holds the session state machine: a single reducer over
// the auth state driven by a closed set of actions, plus the operations that
// wrap identity-provider calls in start/success/failure transitions.
package authstate

import (
	"campusgate/internal/identity"
)

// State is the full session state. The zero value is the anonymous state.
type State struct {
	User            *identity.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Err             string
	IsAdminVerified bool
}

// Action is one state transition input. The set is closed; Reduce switches
// exhaustively over it.
type Action interface {
	isAction()
}

// AuthStateChanged carries an out-of-band session report from the identity
// provider (sign-in elsewhere, external sign-out). It overwrites the session
// fields unconditionally, with no reconciliation against an in-flight login.
type AuthStateChanged struct {
	User  *identity.User
	Token string
}

// LoginStart marks a login-family call in flight.
type LoginStart struct{}

// LoginSuccess carries the authenticated user and session token.
type LoginSuccess struct {
	User  *identity.User
	Token string
}

// LoginFailure carries the failure message. It only sets the error and clears
// the loading flag; the session fields are left as they were.
type LoginFailure struct {
	Message string
}

// Logout resets to the anonymous state.
type Logout struct{}

// AdminVerified marks the current session's admin verification complete.
type AdminVerified struct{}

func (AuthStateChanged) isAction() {}
func (LoginStart) isAction()       {}
func (LoginSuccess) isAction()     {}
func (LoginFailure) isAction()     {}
func (Logout) isAction()           {}
func (AdminVerified) isAction()    {}

// Reduce is the pure transition function. It never mutates its inputs.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AuthStateChanged:
		s.User = copyUser(a.User)
		s.Token = a.Token
		s.IsAuthenticated = a.User != nil
		s.IsAdminVerified = a.User != nil && a.User.AdminVerified
		return s
	case LoginStart:
		s.IsLoading = true
		s.Err = ""
		return s
	case LoginSuccess:
		s.User = copyUser(a.User)
		s.Token = a.Token
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Err = ""
		s.IsAdminVerified = a.User != nil && a.User.AdminVerified
		return s
	case LoginFailure:
		s.Err = a.Message
		s.IsLoading = false
		return s
	case Logout:
		return State{}
	case AdminVerified:
		s.IsAdminVerified = true
		if s.User != nil {
			u := *s.User
			u.AdminVerified = true
			s.User = &u
		}
		return s
	}
	return s
}

func copyUser(u *identity.User) *identity.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
