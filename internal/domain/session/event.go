package session

// Event is the closed union of session transition triggers. Every event is an
// immutable value carrying all data its transition needs; the reducer never
// re-reads external state mid-transition.
//
// The union is sealed by the unexported method so the compiler rejects event
// types defined outside this package.
type Event interface {
	event()
}

// BeginLoading marks the start of an orchestrator operation.
type BeginLoading struct{}

// EndLoading marks the end of an orchestrator operation. It is dispatched on
// every exit path, success or failure, via defer.
type EndLoading struct{}

// SessionRestored carries the result of the one-time boot restore. A nil user
// means no persisted session existed.
type SessionRestored struct {
	User *User
}

// LoginSucceeded attaches the authenticated user to the session.
type LoginSucceeded struct {
	User User
}

// LoginFailed records a rejected login. The session stays anonymous.
type LoginFailed struct {
	Reason string
}

// LoggedOut resets the session to the empty state unconditionally.
type LoggedOut struct{}

// RoleSwitchSucceeded replaces the user after a successful role switch.
// The session itself is never ended by a role switch.
type RoleSwitchSucceeded struct {
	User User
}

// RoleSwitchFailed records a rejected role switch. The previously active role
// is left untouched.
type RoleSwitchFailed struct {
	Reason string
}

// ErrorSet records a failure from an operation that does not otherwise change
// the session (token validation, password operations).
type ErrorSet struct {
	Reason string
}

// ErrorCleared clears the last recorded failure.
type ErrorCleared struct{}

func (BeginLoading) event()        {}
func (EndLoading) event()          {}
func (SessionRestored) event()     {}
func (LoginSucceeded) event()      {}
func (LoginFailed) event()         {}
func (LoggedOut) event()           {}
func (RoleSwitchSucceeded) event() {}
func (RoleSwitchFailed) event()    {}
func (ErrorSet) event()            {}
func (ErrorCleared) event()        {}
