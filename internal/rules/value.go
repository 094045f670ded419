package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the persisted and accepted form of DATE values.
const DateLayout = "2006-01-02"

// Value is a sealed interface over the representations a condition or action
// value can take. Only the types in this file implement it.
type Value interface {
	value()
	String() string
}

// Null is the unset value.
type Null struct{}

// ID is a UUID identifier, stored in the form it was given.
type ID string

// String is a text value.
type String string

// Number is an amount in integer minor currency units.
type Number int64

// Boolean is a boolean value.
type Boolean bool

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// List is the value of a set-membership condition.
type List []Value

// Range is the inclusive bounds of an isbetween condition.
type Range struct {
	Min Number `json:"min"`
	Max Number `json:"max"`
}

func (Null) value()    {}
func (ID) value()      {}
func (String) value()  {}
func (Number) value()  {}
func (Boolean) value() {}
func (Date) value()    {}
func (List) value()    {}
func (Range) value()   {}

func (Null) String() string      { return "null" }
func (v ID) String() string      { return "'" + string(v) + "'" }
func (v String) String() string  { return "'" + string(v) + "'" }
func (v Number) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v Date) String() string    { return v.Time().Format(DateLayout) }

func (v List) String() string {
	parts := make([]string, len(v))
	for i, item := range v {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v Range) String() string {
	return fmt.Sprintf("%d and %d", v.Min, v.Max)
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (v Date) Time() time.Time {
	return time.Date(v.Year, v.Month, v.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or 1 as v is before, equal to or after o.
func (v Date) Compare(o Date) int {
	return v.Time().Compare(o.Time())
}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON implements json.Marshaler.
func (v Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Time().Format(DateLayout))
}

// isUnset reports whether a field value carries no data.
func isUnset(v Value) bool {
	switch x := v.(type) {
	case nil, Null:
		return true
	case String:
		return x == ""
	case ID:
		return x == ""
	}
	return false
}

// rawOf unwraps typed values into the plain Go shapes accepted by Validate.
func rawOf(v any) any {
	switch x := v.(type) {
	case Null:
		return nil
	case ID:
		return string(x)
	case String:
		return string(x)
	case Number:
		return int64(x)
	case Boolean:
		return bool(x)
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = rawOf(item)
		}
		return out
	}
	return v
}

// toValue converts a validated raw value into its typed representation.
func toValue(t ValueType, op ConditionType, raw any) (Value, error) {
	raw = rawOf(raw)
	if raw == nil {
		return Null{}, nil
	}

	if isListOp(op) {
		var items []any
		switch list := raw.(type) {
		case []any:
			items = list
		case []string:
			items = make([]any, len(list))
			for i, s := range list {
				items[i] = s
			}
		default:
			items = []any{raw}
		}
		out := make(List, 0, len(items))
		for _, item := range items {
			v, err := toValue(t, "", item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	switch t {
	case TypeID:
		return ID(raw.(string)), nil
	case TypeString, TypeImportedPayee:
		return String(raw.(string)), nil
	case TypeDate:
		d, _ := toDate(raw)
		return d, nil
	case TypeNumber:
		if op == OpIsBetween {
			r, _ := toRange(raw)
			return r, nil
		}
		n, _ := toMinorUnits(raw)
		return Number(n), nil
	case TypeBoolean:
		return Boolean(raw.(bool)), nil
	}
	return nil, fmt.Errorf("%w: no representation for type %q", ErrInvalidValue, t)
}
