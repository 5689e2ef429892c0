package session

// ReasonCode explains a denied guard decision.
type ReasonCode string

const (
	// ReasonPending means a session operation is still in flight; the caller
	// should render a loading affordance rather than a denial.
	ReasonPending ReasonCode = "PENDING"
	// ReasonUnauthenticated means no user is attached to the session.
	ReasonUnauthenticated ReasonCode = "UNAUTHENTICATED"
	// ReasonForbidden means the user does not satisfy the role requirement.
	ReasonForbidden ReasonCode = "FORBIDDEN"
)

// RequirementMode selects how a multi-role requirement is evaluated.
type RequirementMode string

const (
	// ModeAny admits a user holding at least one of the required roles.
	ModeAny RequirementMode = "any"
	// ModeAll admits only a user holding every required role.
	ModeAll RequirementMode = "all"
)

// Requirement is a role constraint for a protected surface. The zero value
// requires authentication only. An empty Mode defaults to any-of.
type Requirement struct {
	Roles []Role
	Mode  RequirementMode
}

// RequireAny builds an any-of requirement.
func RequireAny(roles ...Role) Requirement {
	return Requirement{Roles: roles, Mode: ModeAny}
}

// RequireAll builds an all-of requirement.
func RequireAll(roles ...Role) Requirement {
	return Requirement{Roles: roles, Mode: ModeAll}
}

// Decision is the guard's admit/deny verdict. Denials always carry enough for
// diagnostic display: a FORBIDDEN decision includes both the roles required
// and the roles actually held, never a bare "denied".
type Decision struct {
	Admit         bool
	Reason        ReasonCode
	RolesRequired []Role
	RolesHeld     []Role
}

// Decide evaluates a role requirement against a session state snapshot. It is
// a pure function of its inputs and safe to call on every render.
func Decide(s State, req Requirement) Decision {
	if s.Loading() {
		return Decision{Reason: ReasonPending}
	}
	if !s.Authenticated() {
		return Decision{Reason: ReasonUnauthenticated}
	}
	if len(req.Roles) == 0 {
		return Decision{Admit: true}
	}

	held := append([]Role(nil), s.User.Roles...)

	satisfied := false
	switch req.Mode {
	case ModeAll:
		satisfied = true
		for _, r := range req.Roles {
			if !s.User.HasRole(r) {
				satisfied = false
				break
			}
		}
	default: // ModeAny and unset
		for _, r := range req.Roles {
			if s.User.HasRole(r) {
				satisfied = true
				break
			}
		}
	}

	if !satisfied {
		return Decision{
			Reason:        ReasonForbidden,
			RolesRequired: append([]Role(nil), req.Roles...),
			RolesHeld:     held,
		}
	}
	return Decision{Admit: true}
}
