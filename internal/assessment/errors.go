package assessment

import "fmt"

// ValidationError indicates malformed input to the scoring engine.
// Always raised before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
