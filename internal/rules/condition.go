package rules

import (
	"fmt"
	"math"
	"regexp"

	"github.com/Veraticus/budgetbot/internal/model"
)

// ConditionOptions qualifies how a condition reads its field.
type ConditionOptions struct {
	Inflow  bool `json:"inflow,omitempty"`
	Outflow bool `json:"outflow,omitempty"`
}

func (o *ConditionOptions) empty() bool {
	return o == nil || (!o.Inflow && !o.Outflow)
}

// ConditionInput is the unvalidated form of a condition, as supplied by a
// caller or read from a rule document.
type ConditionInput struct {
	Value   any
	Options *ConditionOptions
	Field   string
	Op      ConditionType
	Type    ValueType
}

// Condition is a typed predicate over one transaction field.
type Condition struct {
	Value   Value
	Options *ConditionOptions
	pattern *regexp.Regexp
	Field   string
	Op      ConditionType
	Type    ValueType
}

// NewCondition builds and validates a condition from user input.
func NewCondition(field string, op ConditionType, value any) (*Condition, error) {
	return BuildCondition(ConditionInput{Field: field, Op: op, Value: value})
}

// BuildCondition validates in and returns the condition it describes.
// Floating-point values are converted to integer minor units.
func BuildCondition(in ConditionInput) (*Condition, error) {
	return buildCondition(in, true)
}

func buildCondition(in ConditionInput, scale bool) (*Condition, error) {
	if _, err := TypeForField(in.Field); err != nil {
		return nil, err
	}

	if (in.Field == FieldAmountInflow || in.Field == FieldAmountOutflow) && in.Options.empty() {
		if in.Field == FieldAmountInflow {
			in.Options = &ConditionOptions{Inflow: true}
		} else {
			in.Options = &ConditionOptions{Outflow: true}
		}
		in.Value = absAmount(in.Value)
		in.Field = FieldAmount
	}
	if scale {
		scaled, err := scaleFloats(in.Value)
		if err != nil {
			return nil, err
		}
		in.Value = scaled
	}

	if in.Type == "" {
		in.Type, _ = TypeForField(in.Field)
	}
	if !in.Type.IsValid(in.Op) {
		return nil, fmt.Errorf("%w: operation %q not supported for type %q", ErrUnsupportedOperation, in.Op, in.Type)
	}
	if !in.Type.Validate(in.Value, in.Op) {
		return nil, fmt.Errorf("%w: value %v is not valid for type %q and operation %q", ErrInvalidValue, in.Value, in.Type, in.Op)
	}

	v, err := toValue(in.Type, in.Op, in.Value)
	if err != nil {
		return nil, err
	}

	c := &Condition{
		Field:   in.Field,
		Op:      in.Op,
		Value:   v,
		Type:    in.Type,
		Options: in.Options,
	}
	if c.Options.empty() {
		c.Options = nil
	}

	if s, ok := v.(String); ok && in.Op == OpMatches {
		c.pattern, err = regexp.Compile(string(s))
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidValue, s, err)
		}
	}

	return c, nil
}

// Matches reports whether the transaction satisfies the condition. It fails
// with ErrUnimplementedOperator when no evaluation rule exists for the
// condition's type and operator.
func (c *Condition) Matches(txn *model.Transaction) (bool, error) {
	eval, ok := evaluators[evalKey{c.Type, c.Op}]
	if !ok {
		return false, fmt.Errorf("%w: %q on type %q", ErrUnimplementedOperator, c.Op, c.Type)
	}

	actual, err := fieldValue(txn, c.Field)
	if err != nil {
		return false, err
	}

	if c.Field == FieldAmount && c.Options != nil {
		n, _ := actual.(Number)
		switch {
		case c.Options.Inflow:
			if n < 0 {
				return false, nil
			}
		case c.Options.Outflow:
			if n > 0 {
				return false, nil
			}
			actual = -n
		}
	}

	if _, ok := c.Value.(Null); ok {
		switch c.Op {
		case OpIs:
			return isUnset(actual), nil
		case OpIsNot:
			return !isUnset(actual), nil
		default:
			return false, nil
		}
	}

	return eval(actual, c)
}

func (c *Condition) String() string {
	return fmt.Sprintf("'%s' %s %s", c.Field, c.Op, c.Value)
}

// scaleFloats converts floating-point amounts to integer minor units. Values
// that are not finite or do not fit in int64 once scaled are rejected.
func scaleFloats(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return scaleFloat(x)
	case float32:
		return scaleFloat(float64(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			scaled, err := scaleFloats(item)
			if err != nil {
				return nil, err
			}
			out[k] = scaled
		}
		return out, nil
	}
	return v, nil
}

func scaleFloat(x float64) (int64, error) {
	scaled := x * 100
	if math.IsNaN(scaled) || scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return 0, fmt.Errorf("%w: amount %v is out of range", ErrInvalidValue, x)
	}
	return int64(scaled), nil
}

func absAmount(v any) any {
	switch x := v.(type) {
	case int:
		return absOf(x)
	case int8:
		return absOf(x)
	case int16:
		return absOf(x)
	case int32:
		return absOf(x)
	case int64:
		return absOf(x)
	case float32:
		return absOf(x)
	case float64:
		return absOf(x)
	case Number:
		return absOf(x)
	}
	return v
}

func absOf[T ~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
