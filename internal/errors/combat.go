package errors

// metaTransition marks FailedPrecondition errors raised by the encounter state machine.
const metaTransition = "invalid_transition"

// InvalidTransition reports an operation attempted in the wrong encounter state.
func InvalidTransition(message string) *Error {
	return New(CodeFailedPrecondition, message).WithMeta(metaTransition, true)
}

// InvalidTransitionf reports an invalid transition with a formatted message.
func InvalidTransitionf(format string, args ...interface{}) *Error {
	return Newf(CodeFailedPrecondition, format, args...).WithMeta(metaTransition, true)
}

// IsInvalidTransition checks if an error was raised by a rejected state transition
func IsInvalidTransition(err error) bool {
	if GetCode(err) != CodeFailedPrecondition {
		return false
	}
	flag, _ := GetMeta(err)[metaTransition].(bool)
	return flag
}

// PersistenceFailed wraps a record store failure. The in-memory state the
// record was copied from stays applied.
func PersistenceFailed(err error, kind, id string) *Error {
	if err == nil {
		return nil
	}
	return WrapWithCode(err, CodeUnavailable, "failed to persist "+kind).
		WithMeta("record_kind", kind).
		WithMeta("record_id", id)
}
