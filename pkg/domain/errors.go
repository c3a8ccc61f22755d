package domain

import "fmt"

// ValidationError reports rejected user input. The operation that returned it
// made no state change; callers surface the reason and re-prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation that referenced a category or item
// identifier outside current state, typically a stale ID held across a
// delete. No state change occurs.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// AuthError reports a PIN mismatch on a protected action. There is no lockout
// or attempt counter; every call is independent.
type AuthError struct {
	Reason string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("auth: %s", e.Reason)
}
