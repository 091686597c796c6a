// Package services – Principal
//
// Every service operation takes the authenticated principal explicitly; there
// is no ambient "current user" anywhere below the auth middleware.
package services

import "github.com/yahora/yahora-backend/internal/domain"

// Principal is the authenticated identity performing an operation, resolved
// once by the auth middleware from the bearer token.
type Principal struct {
	ID   string
	Role string
	Pro  bool
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == domain.RoleAdmin }

// CanAnswer reports whether the principal may submit answers.
func (p Principal) CanAnswer() bool {
	return p.Role == domain.RoleCollaborator || p.Role == domain.RoleAdmin
}

// PayoutPerAnswer returns the Bs amount an accepted answer earns this
// principal: the pro tier pays 0.40, the base tier 0.30.
func (p Principal) PayoutPerAnswer() float64 {
	if p.Pro {
		return 0.40
	}
	return 0.30
}
