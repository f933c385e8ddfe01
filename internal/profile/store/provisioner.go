package store

import (
	"context"

	"campusgate/internal/profile"
)

// AdminProvisioner adapts a profile Store to the provisioning surface the
// identity provider needs at sign-up.
type AdminProvisioner struct {
	store Store
}

func NewAdminProvisioner(s Store) AdminProvisioner {
	return AdminProvisioner{store: s}
}

func (p AdminProvisioner) ProvisionAdmin(ctx context.Context, userID, email, name string) error {
	return p.store.UpsertMerge(ctx, userID, profile.AdminProvisionPatch(email, name))
}
