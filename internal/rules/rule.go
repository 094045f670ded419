package rules

import (
	"fmt"
	"strings"

	"github.com/Veraticus/budgetbot/internal/model"
)

// Operation combines a rule's conditions.
type Operation string

// Rule operations.
const (
	OperationAnd Operation = "and"
	OperationOr  Operation = "or"
)

// Stage is the pipeline placement of a rule. The engine carries it but does
// not interpret it.
type Stage string

// Rule stages.
const (
	StageNone Stage = ""
	StagePre  Stage = "pre"
	StagePost Stage = "post"
)

// Rule is a boolean combination of conditions guarding a list of actions.
type Rule struct {
	Operation  Operation
	Stage      Stage
	Conditions []*Condition
	Actions    []*Action
}

// NewRule validates the operation and stage and assembles a rule. The legacy
// operations "all" and "any" are accepted as "and" and "or".
func NewRule(operation string, conditions []*Condition, actions []*Action, stage Stage) (*Rule, error) {
	op, err := parseOperation(operation)
	if err != nil {
		return nil, err
	}
	switch stage {
	case StageNone, StagePre, StagePost:
	default:
		return nil, fmt.Errorf("%w: stage %q", ErrInvalidValue, stage)
	}
	for i, c := range conditions {
		if c == nil {
			return nil, fmt.Errorf("%w: condition %d is nil", ErrInvalidValue, i)
		}
	}
	for i, a := range actions {
		if a == nil {
			return nil, fmt.Errorf("%w: action %d is nil", ErrInvalidValue, i)
		}
	}
	if conditions == nil {
		conditions = []*Condition{}
	}
	if actions == nil {
		actions = []*Action{}
	}
	return &Rule{
		Conditions: conditions,
		Operation:  op,
		Actions:    actions,
		Stage:      stage,
	}, nil
}

func parseOperation(s string) (Operation, error) {
	switch s {
	case "", "and", "all":
		return OperationAnd, nil
	case "or", "any":
		return OperationOr, nil
	}
	return "", fmt.Errorf("%w: operation %q", ErrUnsupportedOperation, s)
}

// Evaluate reports whether the transaction satisfies the rule. An AND rule
// with no conditions always matches; an OR rule with no conditions never does.
func (r *Rule) Evaluate(txn *model.Transaction) (bool, error) {
	isOr := r.Operation == OperationOr
	for _, c := range r.Conditions {
		ok, err := c.Matches(txn)
		if err != nil {
			return false, fmt.Errorf("evaluating %s: %w", c, err)
		}
		if ok == isOr {
			return isOr, nil
		}
	}
	return !isOr, nil
}

// Run evaluates the rule and, on a match, applies every action in order.
func (r *Rule) Run(txn *model.Transaction) (bool, error) {
	matched, err := r.Evaluate(txn)
	if err != nil || !matched {
		return false, err
	}
	for _, a := range r.Actions {
		if err := a.Apply(txn); err != nil {
			return true, fmt.Errorf("applying %s: %w", a, err)
		}
	}
	return true, nil
}

// SetDisplayNames attaches the display-name map to every action.
func (r *Rule) SetDisplayNames(names map[string]string) {
	for _, a := range r.Actions {
		a.SetDisplayNames(names)
	}
}

func (r *Rule) String() string {
	quantifier := "all"
	if r.Operation == OperationOr {
		quantifier = "any"
	}
	conditions := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		conditions[i] = c.String()
	}
	actions := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = a.String()
	}
	return fmt.Sprintf("If %s of these conditions match %s then %s",
		quantifier,
		strings.Join(conditions, " "+string(r.Operation)+" "),
		strings.Join(actions, ", "))
}
