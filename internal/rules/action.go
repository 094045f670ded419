package rules

import (
	"fmt"
	"strings"

	"github.com/Veraticus/budgetbot/internal/model"
)

// ActionOptions carries split placement for set and set-split-amount actions.
type ActionOptions struct {
	Method     string `json:"method,omitempty"`
	SplitIndex int    `json:"splitIndex,omitempty"`
}

func (o *ActionOptions) empty() bool {
	return o == nil || (o.Method == "" && o.SplitIndex == 0)
}

var splitMethods = map[string]struct{}{
	model.SplitFixedAmount:  {},
	model.SplitFixedPercent: {},
	model.SplitRemainder:    {},
}

// ActionInput is the unvalidated form of an action.
type ActionInput struct {
	Value   any
	Options *ActionOptions
	Field   string
	Op      ActionType
	Type    ValueType
}

// Action is a typed mutation of one transaction field, or a declared ledger
// operation (schedule link, split allocation) recorded on the transaction.
type Action struct {
	Value   Value
	Options *ActionOptions
	names   map[string]string
	Field   string
	Op      ActionType
	Type    ValueType
}

// NewAction builds and validates an action from user input.
func NewAction(field string, op ActionType, value any) (*Action, error) {
	return BuildAction(ActionInput{Field: field, Op: op, Value: value})
}

// BuildAction validates in and returns the action it describes.
// Floating-point values are converted to integer minor units.
func BuildAction(in ActionInput) (*Action, error) {
	return buildAction(in, true)
}

func buildAction(in ActionInput, scale bool) (*Action, error) {
	if in.Op == "" {
		in.Op = ActionSet
	}
	if in.Field != "" {
		if _, err := TypeForField(in.Field); err != nil {
			return nil, err
		}
		if _, ok := accessors[in.Field]; !ok {
			return nil, fmt.Errorf("%w: field %q cannot be assigned", ErrUnsupportedOperation, in.Field)
		}
	}

	if scale {
		scaled, err := scaleFloats(in.Value)
		if err != nil {
			return nil, err
		}
		in.Value = scaled
	}

	if in.Type == "" {
		switch {
		case in.Field != "":
			in.Type, _ = TypeForField(in.Field)
		case in.Op == ActionLinkSchedule:
			in.Type = TypeID
		case in.Op == ActionSetSplitAmount:
			in.Type = TypeNumber
		}
	}
	if in.Op == ActionAppendNotes || in.Op == ActionPrependNotes {
		in.Type = TypeString
	}

	switch in.Op {
	case ActionSet:
		if in.Field == "" {
			return nil, fmt.Errorf("%w: %q requires a field", ErrUnknownField, in.Op)
		}
	case ActionSetSplitAmount:
		if in.Options != nil && in.Options.Method != "" {
			if _, ok := splitMethods[in.Options.Method]; !ok {
				return nil, fmt.Errorf("%w: unknown split method %q", ErrInvalidValue, in.Options.Method)
			}
		}
	case ActionLinkSchedule, ActionAppendNotes, ActionPrependNotes:
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrUnsupportedOperation, in.Op)
	}

	if in.Type == TypeBoolean {
		in.Value = coerceBool(in.Value)
	}
	if in.Type == "" {
		return nil, fmt.Errorf("%w: cannot derive a type for action %q", ErrInvalidValue, in.Op)
	}
	if !in.Type.Validate(in.Value, "") {
		return nil, fmt.Errorf("%w: value %v is not valid for type %q", ErrInvalidValue, in.Value, in.Type)
	}

	v, err := toValue(in.Type, "", in.Value)
	if err != nil {
		return nil, err
	}

	a := &Action{
		Field:   in.Field,
		Op:      in.Op,
		Value:   v,
		Type:    in.Type,
		Options: in.Options,
	}
	if a.Options.empty() {
		a.Options = nil
	}
	return a, nil
}

// coerceBool turns the integers 0 and 1 into booleans.
func coerceBool(v any) any {
	switch n := v.(type) {
	case int:
		if n == 0 || n == 1 {
			return n == 1
		}
	case int64:
		if n == 0 || n == 1 {
			return n == 1
		}
	}
	return v
}

// SetDisplayNames attaches an identifier to display-name map used only when
// rendering the action. The map is borrowed and never modified.
func (a *Action) SetDisplayNames(names map[string]string) {
	a.names = names
}

// Apply mutates the transaction.
func (a *Action) Apply(txn *model.Transaction) error {
	switch a.Op {
	case ActionSet:
		return setField(txn, a.Field, a.Value)
	case ActionAppendNotes:
		s, err := asString(a.Value)
		if err != nil {
			return err
		}
		if !strings.HasSuffix(txn.Notes, s) {
			txn.Notes += s
		}
		return nil
	case ActionPrependNotes:
		s, err := asString(a.Value)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(txn.Notes, s) {
			txn.Notes = s + txn.Notes
		}
		return nil
	case ActionLinkSchedule:
		id, err := asID(a.Value)
		if err != nil {
			return err
		}
		if id == "" {
			txn.Schedule = nil
		} else {
			txn.Schedule = &id
		}
		return nil
	case ActionSetSplitAmount:
		alloc := model.SplitAllocation{}
		if a.Options != nil {
			alloc.Index = a.Options.SplitIndex
			alloc.Method = a.Options.Method
		}
		if n, ok := a.Value.(Number); ok {
			amount := int64(n)
			alloc.Amount = &amount
		}
		txn.SetSplit(alloc)
		return nil
	}
	return fmt.Errorf("%w: action %q", ErrUnimplementedOperator, a.Op)
}

func (a *Action) String() string {
	display := a.Value.String()
	if a.Field == FieldCategory {
		if id, ok := a.Value.(ID); ok {
			if name, found := a.names[string(id)]; found {
				display = "'" + name + "'"
			}
		}
	}

	switch a.Op {
	case ActionSet, ActionLinkSchedule:
		var split, field string
		if a.Options != nil && a.Options.SplitIndex > 0 {
			split = fmt.Sprintf(" at Split %d", a.Options.SplitIndex)
		}
		if a.Field != "" {
			field = fmt.Sprintf(" '%s'", a.Field)
		}
		return fmt.Sprintf("%s%s%s to %s", a.Op, field, split, display)
	case ActionSetSplitAmount:
		var method, index string
		if a.Options != nil {
			method = a.Options.Method
			if a.Options.SplitIndex > 0 {
				index = fmt.Sprint(a.Options.SplitIndex)
			}
		}
		return fmt.Sprintf("allocate a %s at Split %s: %s", method, index, display)
	case ActionAppendNotes:
		return "append to notes " + display
	case ActionPrependNotes:
		return "prepend to notes " + display
	}
	return "Unknown Action"
}
