package domain

import "time"

// RoleGlobalAdmin is the reserved role granting unconditional access. Users
// holding it can never be deleted.
const RoleGlobalAdmin = "GLOBAL_ADMIN"

// ResourceUsers labels the user-management resource protected by the engine.
const ResourceUsers = "users"

// Action is a console action code attached to a permission.
type Action string

const (
	ActionRead      Action = "r"
	ActionWrite     Action = "w"
	ActionReadWrite Action = "rw"
)

// Grants reports whether a stored permission action covers the requested one.
// A stored "rw" grants both reads and writes.
func (a Action) Grants(requested Action) bool {
	if a == requested {
		return true
	}
	return a == ActionReadWrite && (requested == ActionRead || requested == ActionWrite)
}

// RoleAssignment links a user to a role.
type RoleAssignment struct {
	Username   string
	Role       string
	AssignedAt time.Time
}

// Permission grants an action on a resource label to a role. Resource "*"
// matches every label.
type Permission struct {
	Role     string
	Resource string
	Action   Action
}

// Matches reports whether the permission covers the resource/action pair.
func (p Permission) Matches(resource string, action Action) bool {
	if p.Resource != resource && p.Resource != "*" {
		return false
	}
	return p.Action.Grants(action)
}

// Decision is the transient outcome of an authorization check. It is produced
// fresh per request and never persisted.
type Decision struct {
	Allow  bool
	Reason string
}
