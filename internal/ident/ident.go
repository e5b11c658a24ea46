// Package ident validates component, system, and table names.
//
// Grounded on goarchive's internal/sqlutil, which validates SQL identifiers
// before quoting them into a query; this module never emits SQL, so the
// same restricted-charset regex is retargeted to the names that appear in
// signature strings and system ids.
package ident

import "regexp"

// validRegex matches valid names: alphanumeric and underscore, same
// restriction goarchive applies to table/column identifiers.
var validRegex = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

// IsValid reports whether name is usable as a component, system, or table
// name.
func IsValid(name string) bool {
	return validRegex.MatchString(name)
}

// Validate returns an error if name is not a valid identifier.
func Validate(name string) error {
	if !IsValid(name) {
		return &InvalidIdentifierError{Name: name}
	}
	return nil
}

// InvalidIdentifierError is returned when a name fails validation.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must start with a letter or underscore and contain only alphanumeric characters and underscores)"
}
