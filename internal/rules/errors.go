package rules

import "errors"

// Rule engine errors.
var (
	// ErrUnknownField indicates a field name outside the registry.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnsupportedOperation indicates an operator that is not legal for the field's type.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrInvalidValue indicates a value that fails shape validation for its type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnimplementedOperator indicates an operator with no evaluation or mutation rule.
	ErrUnimplementedOperator = errors.New("unimplemented operator")
	// ErrPersistence indicates a malformed or unreadable rule document.
	ErrPersistence = errors.New("persistence error")
)
