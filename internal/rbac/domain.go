package rbac

// Role is a named grant stored in user_roles.
type Role string

// Roles known to the store. Only RoleAdmin is consulted by this service.
const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// RoleAssignment links a principal to a role.
type RoleAssignment struct {
	PrincipalID string
	Role        Role
}

// DenyReason classifies a denied authorization.
type DenyReason string

const (
	ReasonNone      DenyReason = ""
	ReasonNoSession DenyReason = "no_session"
	ReasonNotAdmin  DenyReason = "not_admin"
)

// Decision is the outcome of the admin gate.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the single allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny builds a denying decision.
func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

func (d Decision) String() string {
	if d.Allowed {
		return "allowed"
	}
	return "denied(" + string(d.Reason) + ")"
}
