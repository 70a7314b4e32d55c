package controller

import "fmt"

// ValidationError reports malformed task input. It is raised before any
// capability call and propagates as a hard failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %s %s", e.Field, e.Reason)
}
