package job

// ValidationError reports a bad request before any job is created; it maps
// to a 400 at the API boundary and has no side effects.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// RetryNotAllowedError reports a retry precondition failure: no provider run
// id, a provider run not in a re-processable terminal state, or an
// unreachable provider. Maps to a 409 at the API boundary.
type RetryNotAllowedError struct {
	Msg string
}

func (e *RetryNotAllowedError) Error() string { return e.Msg }
