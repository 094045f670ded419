// Package storage provides the rule set persistence layer for the budgetbot application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/budgetbot/internal/rules"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRuleSet ensures a rule set and its rules are present.
func validateRuleSet(rs *rules.RuleSet) error {
	if rs == nil {
		return fmt.Errorf("%w: rule set", ErrNilParameter)
	}
	for i, r := range rs.Rules {
		if r == nil {
			return fmt.Errorf("%w: rule at index %d", ErrNilParameter, i)
		}
	}
	return nil
}
