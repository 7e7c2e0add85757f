package identity

// Role is the caller's role as carried in the bearer token.
type Role string

const (
	// RoleCustomer books and follows their own parcels.
	RoleCustomer Role = "customer"
	// RoleAgent moves the parcels assigned to them.
	RoleAgent Role = "agent"
	// RoleAdmin sees and changes everything.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   string
	Role Role
}

// Is reports whether the principal has the given role.
func (p Principal) Is(role Role) bool {
	return p.Role == role
}

// Contact is the addressable part of a user, used for defaults and notifications.
type Contact struct {
	ID    string
	Role  Role
	Name  string
	Email string
	Phone string
}
