package ports

import (
	"context"

	"github.com/hextract/parking-net/internal/domain"
)

// ProvisionedUser is the account an IdentityAdmin ensured.
type ProvisionedUser struct {
	ID      string
	Created bool
	// JoinedGroup is set when membership had to be added on this call.
	JoinedGroup bool
}

// IdentityAdmin provisions accounts through the identity provider admin API.
// EnsureUser must be idempotent: an existing login is reused, its password
// reset to actor.Password and its group membership completed.
type IdentityAdmin interface {
	EnsureUser(ctx context.Context, actor domain.Actor, group string) (ProvisionedUser, error)
}
