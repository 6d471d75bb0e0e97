// Package auth authenticates callers from bearer tokens and decides which
// operations a caller's role admits.
package auth

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
)

// Principal is the authenticated caller.
type Principal struct {
	AccountID int64
	Role      string
	HouseID   *int64
}

// IsReviewer reports whether the principal may review requests.
func (p *Principal) IsReviewer() bool {
	return p != nil && (p.Role == entity.RoleAdministrador || p.Role == entity.RoleSuperAdmin)
}

// IsSuperAdmin reports whether the principal has the super_admin role.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == entity.RoleSuperAdmin
}

// ID returns a pointer to the account ID, or nil for anonymous callers.
func (p *Principal) ID() *int64 {
	if p == nil {
		return nil
	}
	id := p.AccountID
	return &id
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by the Authenticate middleware,
// or nil for anonymous requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
