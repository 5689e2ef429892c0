package session

// Reduce is the pure transition function (State, Event) -> State. It is total:
// no event is invalid in any state, and an event type the switch does not know
// returns the input unchanged, which keeps stale or foreign dispatches
// harmless.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case BeginLoading:
		s.Pending++
		return s

	case EndLoading:
		if s.Pending > 0 {
			s.Pending--
		}
		return s

	case SessionRestored:
		if e.User == nil {
			s.User = nil
		} else {
			u := Reconcile(*e.User)
			s.User = &u
		}
		s.Err = ""
		return s

	case LoginSucceeded:
		u := Reconcile(e.User)
		s.User = &u
		s.Err = ""
		return s

	case LoginFailed:
		s.User = nil
		s.Err = e.Reason
		return s

	case LoggedOut:
		// Unconditional reset, regardless of prior error or pending state.
		return State{}

	case RoleSwitchSucceeded:
		u := Reconcile(e.User)
		s.User = &u
		s.Err = ""
		return s

	case RoleSwitchFailed:
		s.Err = e.Reason
		return s

	case ErrorSet:
		s.Err = e.Reason
		return s

	case ErrorCleared:
		s.Err = ""
		return s

	default:
		return s
	}
}

// bumpsGeneration reports whether an applied event changes the session
// identity. Operations that captured an older generation must not apply their
// terminal events once one of these has landed.
func bumpsGeneration(ev Event) bool {
	switch ev.(type) {
	case LoginSucceeded, LoggedOut, SessionRestored:
		return true
	default:
		return false
	}
}
