package session

// Package session contains the domain core of the session lifecycle: the
// user/role model, the event union, the pure transition function, the
// subscribable store, and the authorization guard. It is pure and free of
// transport/adapter concerns; all I/O lives in internal/adapters and is
// coordinated by internal/service.

// Role is an application authorization role. It is treated as an opaque
// capability tag: no ordering or hierarchy is assumed between roles.
type Role string

const (
	RoleLearner    Role = "learner"
	RoleTrainer    Role = "trainer"
	RoleOrgAdmin   Role = "org_admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether the role is one of the predefined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleTrainer, RoleOrgAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.Valid()
}

// AllRoles returns the closed set of roles in declaration order.
func AllRoles() []Role {
	return []Role{RoleLearner, RoleTrainer, RoleOrgAdmin, RoleSuperAdmin}
}

// User is the authenticated principal attached to the session.
// Roles preserves the backend's order with duplicates removed; ActiveRole is
// the single role currently in effect and is always a member of Roles once the
// user has passed through Reconcile.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Roles      []Role `json:"roles"`
	ActiveRole Role   `json:"active_role"`
}

// HasRole reports whether the user holds the given role.
func (u User) HasRole(r Role) bool {
	for _, held := range u.Roles {
		if held == r {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stored users never alias caller slices.
func (u User) Clone() User {
	c := u
	c.Roles = append([]Role(nil), u.Roles...)
	return c
}

// Reconcile normalizes a backend user payload into a well-formed User.
// Duplicate roles are removed preserving first occurrence; a user without
// roles gets Roles=[ActiveRole]; a user without an active role gets
// ActiveRole=Roles[0]; an active role the backend did not list is appended so
// the membership invariant holds. Reconcile runs exactly once, at the moment
// a user enters the store, never on reads.
func Reconcile(u User) User {
	u = u.Clone()

	deduped := u.Roles[:0]
	seen := make(map[Role]struct{}, len(u.Roles))
	for _, r := range u.Roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		deduped = append(deduped, r)
	}
	u.Roles = deduped

	switch {
	case len(u.Roles) == 0 && u.ActiveRole != "":
		u.Roles = []Role{u.ActiveRole}
	case len(u.Roles) > 0 && u.ActiveRole == "":
		u.ActiveRole = u.Roles[0]
	case u.ActiveRole != "" && !u.HasRole(u.ActiveRole):
		u.Roles = append(u.Roles, u.ActiveRole)
	}

	return u
}

// State is the single session record. The zero value is the anonymous,
// idle state the application starts in.
//
// Authentication status and loading status are derived, not stored: a session
// is authenticated exactly when a user is attached, and loading exactly when
// at least one operation is pending. Err holds the last failed operation's
// reason and is cleared when the next operation starts.
type State struct {
	User    *User
	Err     string
	Pending int
}

// Authenticated reports whether a user is attached to the session.
func (s State) Authenticated() bool { return s.User != nil }

// Loading reports whether any session operation is in flight.
func (s State) Loading() bool { return s.Pending > 0 }

// clone deep-copies the state so readers never alias the store's user.
func (s State) clone() State {
	if s.User != nil {
		u := s.User.Clone()
		s.User = &u
	}
	return s
}
