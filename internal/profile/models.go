package profile

import (
	"time"

	"campusgate/internal/identity"
)

// Profile is the application-level record keyed by identity-provider user id.
// Role and AdminVerified live here, not in the credential store; AdminVerified
// only flips true through the verification code manager's transactional
// consume.
type Profile struct {
	UserID          string
	Email           string
	Name            string
	Role            identity.Role
	AdminVerified   bool
	AdmissionNumber string
	StaffID         string
	LastLogin       time.Time
	UpdatedAt       time.Time
}

// Patch carries a merge-upsert: nil fields leave the stored value untouched.
type Patch struct {
	Email           *string
	Name            *string
	Role            *identity.Role
	AdminVerified   *bool
	AdmissionNumber *string
	StaffID         *string
}

func stringPtr(s string) *string             { return &s }
func boolPtr(b bool) *bool                   { return &b }
func rolePtr(r identity.Role) *identity.Role { return &r }

// AdminProvisionPatch is the merge applied at admin sign-up.
func AdminProvisionPatch(email, name string) Patch {
	return Patch{
		Email:         stringPtr(email),
		Name:          stringPtr(name),
		Role:          rolePtr(identity.RoleAdmin),
		AdminVerified: boolPtr(false),
	}
}

// Apply merges the patch into p.
func (patch Patch) Apply(p *Profile) {
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.AdminVerified != nil {
		p.AdminVerified = *patch.AdminVerified
	}
	if patch.AdmissionNumber != nil {
		p.AdmissionNumber = *patch.AdmissionNumber
	}
	if patch.StaffID != nil {
		p.StaffID = *patch.StaffID
	}
}
