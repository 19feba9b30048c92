package gateway

// Role classifies an operator's base capability level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Identity is a pre-verified operator identity supplied by an external
// authentication collaborator. The gateway trusts it once present and
// never mutates it.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

// Present reports whether the identity carries a usable user and role.
func (i Identity) Present() bool {
	return i.UserID > 0 && i.Role.Valid()
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
