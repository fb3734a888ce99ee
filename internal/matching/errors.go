package matching

import "fmt"

// MalformedRuleError reports a stored rule whose serialized fields cannot be decoded.
type MalformedRuleError struct {
	RuleID string
	Field  string
	Err    error
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed rule %q: %s: %v", e.RuleID, e.Field, e.Err)
}

func (e *MalformedRuleError) Unwrap() error { return e.Err }
