package domain

// Identity is the resolved caller attached to an authenticated request.
// It is reconstructed on every request from session or token claims and is
// never persisted as its own entity.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     Role
	Status   AccountStatus
}

// HasRole reports whether the identity's role is among the accepted set.
// An empty set means any authenticated identity is acceptable.
func (i Identity) HasRole(accepted ...Role) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, role := range accepted {
		if i.Role == role {
			return true
		}
	}
	return false
}
