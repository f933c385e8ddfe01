// Package guard decides what a navigation renders given the current auth
// state. Decisions are pure and never fail; they are evaluated synchronously
// on every navigation.
package guard

import (
	"strings"

	"campusgate/internal/authstate"
	"campusgate/internal/identity"
)

const (
	authPrefix = "/auth"

	loginPath       = "/auth/login"
	parentLoginPath = "/auth/parent-login"
	dashboardPath   = "/dashboard"
	parentHomePath  = "/parent"
)

// Kind is the guard's verdict for a navigation.
type Kind int

const (
	// KindRender lets the requested view through.
	KindRender Kind = iota
	// KindRedirect sends the user to Outcome.Path instead.
	KindRedirect
	// KindVerifyEmailBlock shows the email-verification blocking screen.
	KindVerifyEmailBlock
	// KindAdminChallenge shows the admin verification challenge screen.
	KindAdminChallenge
)

func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindRedirect:
		return "redirect"
	case KindVerifyEmailBlock:
		return "verify_email_block"
	case KindAdminChallenge:
		return "admin_challenge"
	}
	return "unknown"
}

// Outcome is the decision. Path is set only for KindRedirect.
type Outcome struct {
	Kind Kind
	Path string
}

func render() Outcome             { return Outcome{Kind: KindRender} }
func redirectTo(p string) Outcome { return Outcome{Kind: KindRedirect, Path: p} }
func verifyEmailBlock() Outcome   { return Outcome{Kind: KindVerifyEmailBlock} }
func adminChallenge() Outcome     { return Outcome{Kind: KindAdminChallenge} }

// Decide evaluates the protected-route rules in fixed precedence order:
// authentication, email verification, admin verification, then role fit.
// Unrecognized roles fall through to render; the role checks here gate
// navigation, they are not the authorization boundary for data access.
func Decide(st authstate.State, path string, requiresParentRole bool) Outcome {
	if !st.IsAuthenticated || st.User == nil {
		if requiresParentRole {
			return redirectTo(parentLoginPath)
		}
		return redirectTo(loginPath)
	}

	if !st.User.EmailVerified {
		return verifyEmailBlock()
	}

	if st.User.Role == identity.RoleAdmin && !st.IsAdminVerified && !underAuthPrefix(path) {
		return adminChallenge()
	}

	if requiresParentRole && st.User.Role != identity.RoleParent {
		return redirectTo(dashboardPath)
	}
	if !requiresParentRole && st.User.Role == identity.RoleParent {
		return redirectTo(parentHomePath)
	}

	return render()
}

// DecidePublic guards the login and registration pages: an authenticated,
// email-verified session is sent to its landing page instead.
func DecidePublic(st authstate.State) Outcome {
	if !st.IsAuthenticated || st.User == nil {
		return render()
	}
	if !st.User.EmailVerified {
		return render()
	}
	if st.User.Role == identity.RoleParent {
		return redirectTo(parentHomePath)
	}
	return redirectTo(dashboardPath)
}

func underAuthPrefix(path string) bool {
	return strings.HasPrefix(path, authPrefix)
}
