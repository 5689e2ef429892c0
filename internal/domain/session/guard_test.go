package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func authedState(roles ...Role) State {
	u := User{ID: "u1", Roles: roles}
	if len(roles) > 0 {
		u.ActiveRole = roles[0]
	}
	return State{User: &u}
}

func TestDecide_PendingWinsOverEverything(t *testing.T) {
	s := authedState(RoleSuperAdmin)
	s.Pending = 1

	d := Decide(s, RequireAny(RoleLearner))

	assert.False(t, d.Admit)
	assert.Equal(t, ReasonPending, d.Reason)
}

func TestDecide_Unauthenticated(t *testing.T) {
	d := Decide(State{}, Requirement{})

	assert.False(t, d.Admit)
	assert.Equal(t, ReasonUnauthenticated, d.Reason)
}

func TestDecide_NoRolesRequired_AdmitsAnyAuthenticatedUser(t *testing.T) {
	d := Decide(authedState(RoleLearner), Requirement{})

	assert.True(t, d.Admit)
}

func TestDecide_AnyOf(t *testing.T) {
	s := authedState(RoleLearner)

	assert.True(t, Decide(s, RequireAny(RoleTrainer, RoleLearner)).Admit)
	assert.False(t, Decide(s, RequireAny(RoleTrainer, RoleOrgAdmin)).Admit)
}

func TestDecide_AllOf(t *testing.T) {
	s := authedState(RoleLearner, RoleTrainer)

	assert.True(t, Decide(s, RequireAll(RoleLearner, RoleTrainer)).Admit)
	assert.False(t, Decide(s, RequireAll(RoleLearner, RoleOrgAdmin)).Admit)
}

func TestDecide_ModeUnset_DefaultsToAnyOf(t *testing.T) {
	s := authedState(RoleLearner)

	d := Decide(s, Requirement{Roles: []Role{RoleTrainer, RoleLearner}})

	assert.True(t, d.Admit)
}

func TestDecide_ForbiddenCarriesRequiredAndHeldRoles(t *testing.T) {
	s := authedState(RoleLearner)

	d := Decide(s, RequireAny(RoleOrgAdmin, RoleSuperAdmin))

	assert.False(t, d.Admit)
	assert.Equal(t, ReasonForbidden, d.Reason)
	assert.Equal(t, []Role{RoleOrgAdmin, RoleSuperAdmin}, d.RolesRequired)
	assert.Equal(t, []Role{RoleLearner}, d.RolesHeld)
}

func TestDecide_MembershipNotActiveRoleDecides(t *testing.T) {
	// The user's active role is learner, but holding trainer is enough.
	s := State{User: &User{
		ID:         "u1",
		Roles:      []Role{RoleLearner, RoleTrainer},
		ActiveRole: RoleLearner,
	}}

	assert.True(t, Decide(s, RequireAny(RoleTrainer)).Admit)
}
