package authstate

import (
	"context"

	"campusgate/internal/identity"
	"campusgate/internal/platform/config"
)

// Strategy authenticates one login flow. The email flow talks to the
// identity provider; the parent and teacher flows validate a fixed demo
// credential pair and never touch the provider, so a deployment can swap a
// real backend in without changing the state machine.
type Strategy interface {
	Authenticate(ctx context.Context, principal, password string) (identity.User, string, error)
}

// demoStrategy matches a single configured credential pair and fabricates a
// synthetic user. No provider session exists for these logins, so the token
// is empty and sign-out is purely local.
type demoStrategy struct {
	account config.DemoAccount
	role    identity.Role
}

func NewParentDemoStrategy(account config.DemoAccount) Strategy {
	return demoStrategy{account: account, role: identity.RoleParent}
}

func NewTeacherDemoStrategy(account config.DemoAccount) Strategy {
	return demoStrategy{account: account, role: identity.RoleTeacher}
}

func (s demoStrategy) Authenticate(_ context.Context, principal, password string) (identity.User, string, error) {
	if principal != s.account.Principal || password != s.account.Password {
		return identity.User{}, "", identity.ErrInvalidCredentials
	}

	user := identity.User{
		ID:            "demo-" + string(s.role),
		Name:          s.account.Name,
		Role:          s.role,
		IsActive:      true,
		EmailVerified: true,
		// Demo roles are exempt from admin verification.
		AdminVerified: true,
	}
	switch s.role {
	case identity.RoleParent:
		user.AdmissionNumber = s.account.Principal
	case identity.RoleTeacher:
		user.StaffID = s.account.Principal
	}
	return user, "", nil
}
