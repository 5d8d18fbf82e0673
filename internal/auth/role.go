package auth

import "fmt"

// Role is the marketplace role carried by every resolved Session.
// The set is closed: values outside it are never constructed by this package.
type Role string

const (
	// RoleClient posts jobs and hires workers.
	RoleClient Role = "client"
	// RoleWorker bids on jobs and requires an active subscription.
	RoleWorker Role = "worker"
	// RoleAdmin operates the platform.
	RoleAdmin Role = "admin"
)

// Roles lists the closed role set in a stable order.
func Roles() []Role {
	return []Role{RoleClient, RoleWorker, RoleAdmin}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleWorker, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts s into a Role.
// Returns ErrUnknownRole (wrapped) when s is not in the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, truncate(s, 16))
	}
	return r, nil
}

// LandingPath returns the dashboard entry point for a role.
func LandingPath(r Role) (string, error) {
	switch r {
	case RoleClient:
		return "/dashboard/client", nil
	case RoleWorker:
		return "/dashboard/worker", nil
	case RoleAdmin:
		return "/dashboard/admin", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, truncate(string(r), 16))
}
