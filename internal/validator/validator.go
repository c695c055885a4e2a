// Package validator implements a small check-map validator used to
// schema-check movie and review form submissions before they reach the
// persistence layer.
package validator

import "regexp"

// EmailRX is a regular expression for validating email addresses.
var EmailRX = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$")

// Validator accumulates field validation errors keyed by field name.
type Validator struct {
	Errors map[string]string
}

// New creates a Validator with an initialized errors map.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true when no checks have failed.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records an error for a field, keeping the first message when a
// field fails more than one check.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check records an error when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Matches reports whether a string value matches a regular expression.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}
