package httpsaudit

import (
	"errors"
	"fmt"
)

// ErrNoRulesets is returned when a rules directory yields no usable rulesets.
var ErrNoRulesets = errors.New("no rulesets loaded")

// DocumentSyntaxError reports a malformed ruleset document. Fragment holds the
// serialized element that caused the failure.
type DocumentSyntaxError struct {
	Cause    string
	Fragment string
}

func (e *DocumentSyntaxError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("invalid ruleset: %s", e.Cause)
	}
	return fmt.Sprintf("invalid ruleset: %s in %s", e.Cause, e.Fragment)
}

// RuleSyntaxError reports a pattern that compiles under neither regex engine
// after dialect translation.
type RuleSyntaxError struct {
	Pattern string
	Err     error
}

func (e *RuleSyntaxError) Error() string {
	return fmt.Sprintf("could not compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *RuleSyntaxError) Unwrap() error {
	return e.Err
}

// SubstitutionError reports a rule that failed while rewriting a URL.
type SubstitutionError struct {
	Pattern string
	URL     string
	Err     error
}

func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("could not apply %q to %v: %v", e.Pattern, e.URL, e.Err)
}

func (e *SubstitutionError) Unwrap() error {
	return e.Err
}
