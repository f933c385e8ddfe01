package identity

import (
	"time"

	dErrors "campusgate/pkg/domain-errors"
)

// Role is the closed set of portal roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleStaff   Role = "staff"
)

// Known reports whether the role is one of the recognized values. Route
// guarding deliberately does not deny unknown roles; this exists for
// validation at write boundaries.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent, RoleStaff:
		return true
	}
	return false
}

// User is the identity plus authorization record the rest of the application
// consumes. Role and verification flags are attached from the profile store
// after authentication; AdminVerified only transitions false→true through the
// verification code manager.
type User struct {
	ID              string
	Email           string
	Name            string
	Role            Role
	IsActive        bool
	LastLogin       time.Time
	EmailVerified   bool
	AdminVerified   bool
	AdmissionNumber string
	StaffID         string
}

// Domain errors shared by every login flow.
var (
	ErrInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	ErrUnverifiedEmail    = dErrors.New(dErrors.CodeForbidden, "email not verified")
)
