package domain

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may act on a resource owned by
// ownerID. Owners and admins are allowed; everyone else is not.
func (a Actor) CanAccess(ownerID string) bool {
	return a.ID == ownerID || a.IsAdmin()
}
