// Package revocation tracks signed-out session tokens until their natural
// expiry. Sign-out is remote-first: the JTI lands here before local auth
// state is reset.
package revocation

import (
	"context"
	"time"
)

// List is the token revocation list consulted by the identity provider.
type List interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
