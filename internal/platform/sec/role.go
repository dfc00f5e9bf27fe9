// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the authorization level carried in an access token.
//
// Authoring rights are not a role: any member may create a series and is its
// author from then on.
type UserRole string

const (
	// RoleAdmin passes every role check.
	RoleAdmin UserRole = "admin"

	// RoleBilling is held by the payment system's service account. It may
	// credit wallets and move subscriptions between states.
	RoleBilling UserRole = "billing"

	// RoleMember is assigned at registration.
	RoleMember UserRole = "member"
)

// AtLeast reports whether r satisfies a check for target.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.rank() >= target.rank() && target.rank() > 0
}

func (r UserRole) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleBilling:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}
