package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campusgate/internal/authstate"
	"campusgate/internal/identity"
)

func stateFor(role identity.Role, emailVerified, adminVerified bool) authstate.State {
	return authstate.State{
		User: &identity.User{
			ID:            "u1",
			Role:          role,
			EmailVerified: emailVerified,
			AdminVerified: adminVerified,
		},
		IsAuthenticated: true,
		IsAdminVerified: adminVerified,
	}
}

func TestDecidePrecedence(t *testing.T) {
	tests := []struct {
		name           string
		state          authstate.State
		path           string
		requiresParent bool
		want           Outcome
	}{
		{
			name: "anonymous to login",
			path: "/dashboard",
			want: Outcome{Kind: KindRedirect, Path: "/auth/login"},
		},
		{
			name:           "anonymous parent route to parent login",
			path:           "/parent/fees",
			requiresParent: true,
			want:           Outcome{Kind: KindRedirect, Path: "/auth/parent-login"},
		},
		{
			name:  "unverified email blocks before role checks",
			state: stateFor(identity.RoleParent, false, false),
			path:  "/dashboard",
			want:  Outcome{Kind: KindVerifyEmailBlock},
		},
		{
			name:  "unverified admin challenged",
			state: stateFor(identity.RoleAdmin, true, false),
			path:  "/dashboard",
			want:  Outcome{Kind: KindAdminChallenge},
		},
		{
			name:  "unverified admin not challenged under auth prefix",
			state: stateFor(identity.RoleAdmin, true, false),
			path:  "/auth/verify-admin",
			want:  Outcome{Kind: KindRender},
		},
		{
			name:  "verified admin renders",
			state: stateFor(identity.RoleAdmin, true, true),
			path:  "/dashboard",
			want:  Outcome{Kind: KindRender},
		},
		{
			name:           "non-parent on parent route",
			state:          stateFor(identity.RoleTeacher, true, true),
			path:           "/parent/fees",
			requiresParent: true,
			want:           Outcome{Kind: KindRedirect, Path: "/dashboard"},
		},
		{
			name:  "parent on staff route",
			state: stateFor(identity.RoleParent, true, true),
			path:  "/dashboard",
			want:  Outcome{Kind: KindRedirect, Path: "/parent"},
		},
		{
			name:           "parent on parent route renders",
			state:          stateFor(identity.RoleParent, true, true),
			path:           "/parent/fees",
			requiresParent: true,
			want:           Outcome{Kind: KindRender},
		},
		{
			name:  "unknown role falls through to render",
			state: stateFor(identity.Role("librarian"), true, true),
			path:  "/dashboard",
			want:  Outcome{Kind: KindRender},
		},
		{
			name: "authenticated without user record treated as anonymous",
			state: authstate.State{
				IsAuthenticated: true,
			},
			path: "/dashboard",
			want: Outcome{Kind: KindRedirect, Path: "/auth/login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.path, tt.requiresParent))
		})
	}
}

// The admin challenge outranks the role redirects: an unverified admin
// landing on a parent route sees the challenge, not a redirect.
func TestDecideAdminChallengeBeforeRoleRedirect(t *testing.T) {
	st := stateFor(identity.RoleAdmin, true, false)
	got := Decide(st, "/parent/fees", true)
	assert.Equal(t, Outcome{Kind: KindAdminChallenge}, got)
}

// Role redirects hold for every path of the wrong kind, not just the
// canonical ones.
func TestDecideRoleRedirectsAcrossPaths(t *testing.T) {
	parent := stateFor(identity.RoleParent, true, true)
	for _, path := range []string{"/dashboard", "/students", "/fees/reports", "/settings"} {
		got := Decide(parent, path, false)
		assert.Equal(t, Outcome{Kind: KindRedirect, Path: "/parent"}, got, "path %s", path)
	}

	for _, role := range []identity.Role{identity.RoleAdmin, identity.RoleTeacher, identity.RoleStaff, identity.RoleStudent} {
		st := stateFor(role, true, true)
		for _, path := range []string{"/parent", "/parent/fees", "/parent/results"} {
			got := Decide(st, path, true)
			assert.Equal(t, Outcome{Kind: KindRedirect, Path: "/dashboard"}, got, "role %s path %s", role, path)
		}
	}
}

func TestDecidePublic(t *testing.T) {
	assert.Equal(t, Outcome{Kind: KindRender}, DecidePublic(authstate.State{}))

	unverified := stateFor(identity.RoleAdmin, false, false)
	assert.Equal(t, Outcome{Kind: KindRender}, DecidePublic(unverified))

	parent := stateFor(identity.RoleParent, true, true)
	assert.Equal(t, Outcome{Kind: KindRedirect, Path: "/parent"}, DecidePublic(parent))

	admin := stateFor(identity.RoleAdmin, true, true)
	assert.Equal(t, Outcome{Kind: KindRedirect, Path: "/dashboard"}, DecidePublic(admin))
}
