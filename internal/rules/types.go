// Package rules implements the transaction rule engine: typed conditions that
// match ledger transactions and typed actions that mutate them.
package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ValueType is the semantic type of a transaction field.
type ValueType string

// Value types.
const (
	TypeID            ValueType = "id"
	TypeString        ValueType = "string"
	TypeNumber        ValueType = "number"
	TypeDate          ValueType = "date"
	TypeBoolean       ValueType = "boolean"
	TypeImportedPayee ValueType = "imported_payee"
)

// ValueTypes returns every value type.
func ValueTypes() []ValueType {
	return []ValueType{TypeID, TypeString, TypeNumber, TypeDate, TypeBoolean, TypeImportedPayee}
}

// ConditionType is a comparison operator.
type ConditionType string

// Condition operators.
const (
	OpIs             ConditionType = "is"
	OpIsApprox       ConditionType = "isapprox"
	OpGreater        ConditionType = "gt"
	OpGreaterEqual   ConditionType = "gte"
	OpLess           ConditionType = "lt"
	OpLessEqual      ConditionType = "lte"
	OpContains       ConditionType = "contains"
	OpOneOf          ConditionType = "oneOf"
	OpIsNot          ConditionType = "isNot"
	OpDoesNotContain ConditionType = "doesNotContain"
	OpNotOneOf       ConditionType = "notOneOf"
	OpIsBetween      ConditionType = "isbetween"
	OpMatches        ConditionType = "matches"
	OpHasTags        ConditionType = "hasTags"
)

// ConditionTypes returns every condition operator.
func ConditionTypes() []ConditionType {
	return []ConditionType{
		OpIs, OpIsApprox, OpGreater, OpGreaterEqual, OpLess, OpLessEqual,
		OpContains, OpOneOf, OpIsNot, OpDoesNotContain, OpNotOneOf,
		OpIsBetween, OpMatches, OpHasTags,
	}
}

// ActionType is a mutation operator.
type ActionType string

// Action operators.
const (
	ActionSet            ActionType = "set"
	ActionSetSplitAmount ActionType = "set-split-amount"
	ActionLinkSchedule   ActionType = "link-schedule"
	ActionPrependNotes   ActionType = "prepend-notes"
	ActionAppendNotes    ActionType = "append-notes"
)

// ActionTypes returns every action operator.
func ActionTypes() []ActionType {
	return []ActionType{ActionSet, ActionSetSplitAmount, ActionLinkSchedule, ActionPrependNotes, ActionAppendNotes}
}

// Transaction field names addressable by conditions and actions.
const (
	FieldAccount             = "acct"
	FieldCategory            = "category"
	FieldNotes               = "notes"
	FieldDescription         = "description"
	FieldImportedDescription = "imported_description"
	FieldDate                = "date"
	FieldCleared             = "cleared"
	FieldReconciled          = "reconciled"
	FieldAmount              = "amount"
	FieldAmountInflow        = "amount_inflow"
	FieldAmountOutflow       = "amount_outflow"
)

var fieldTypes = map[string]ValueType{
	FieldAccount:             TypeID,
	FieldCategory:            TypeID,
	FieldNotes:               TypeString,
	FieldDescription:         TypeString,
	FieldImportedDescription: TypeImportedPayee,
	FieldDate:                TypeDate,
	FieldCleared:             TypeBoolean,
	FieldReconciled:          TypeBoolean,
	FieldAmount:              TypeNumber,
	FieldAmountInflow:        TypeNumber,
	FieldAmountOutflow:       TypeNumber,
}

// TypeForField returns the value type of a field.
func TypeForField(field string) (ValueType, error) {
	t, ok := fieldTypes[field]
	if !ok {
		return "", fmt.Errorf("%w: field %q does not have a matching value type", ErrUnknownField, field)
	}
	return t, nil
}

func opSet(ops ...ConditionType) map[ConditionType]struct{} {
	set := make(map[ConditionType]struct{}, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}
	return set
}

var textOps = opSet(OpIs, OpContains, OpOneOf, OpIsNot, OpDoesNotContain, OpNotOneOf, OpMatches, OpHasTags)

var legalOps = map[ValueType]map[ConditionType]struct{}{
	TypeDate:          opSet(OpIs, OpIsApprox, OpGreater, OpGreaterEqual, OpLess, OpLessEqual),
	TypeString:        textOps,
	TypeImportedPayee: textOps,
	TypeID:            opSet(OpIs, OpIsNot, OpOneOf, OpNotOneOf),
	TypeNumber:        opSet(OpIs, OpIsApprox, OpIsBetween, OpGreater, OpGreaterEqual, OpLess, OpLessEqual),
	TypeBoolean:       opSet(OpIs),
}

// IsValid reports whether op may be used to compare values of type t.
func (t ValueType) IsValid(op ConditionType) bool {
	_, ok := legalOps[t][op]
	return ok
}

func isListOp(op ConditionType) bool {
	return op == OpOneOf || op == OpNotOneOf
}

// Validate reports whether value has the shape required by t under op.
// A nil value is always valid and stands for "unset".
func (t ValueType) Validate(value any, op ConditionType) bool {
	value = rawOf(value)
	if value == nil {
		return true
	}
	if isListOp(op) {
		switch list := value.(type) {
		case []any:
			for _, v := range list {
				if !t.Validate(v, "") {
					return false
				}
			}
			return true
		case []string:
			for _, v := range list {
				if !t.Validate(v, "") {
					return false
				}
			}
			return true
		}
	}

	switch t {
	case TypeID:
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	case TypeString, TypeImportedPayee:
		_, ok := value.(string)
		return ok
	case TypeDate:
		_, ok := toDate(value)
		return ok
	case TypeNumber:
		if op == OpIsBetween {
			_, ok := toRange(value)
			return ok
		}
		_, ok := toMinorUnits(value)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	}
	return false
}

// toMinorUnits accepts integer and floating-point values. Floats from user
// input are scaled to minor units before they reach here; this only truncates.
func toMinorUnits(value any) (int64, bool) {
	switch n := value.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float32:
		return toMinorUnits(float64(n))
	case float64:
		if math.IsNaN(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case Number:
		return int64(n), true
	}
	return 0, false
}

func toDate(value any) (Date, bool) {
	switch d := value.(type) {
	case string:
		parsed, err := time.Parse(DateLayout, d)
		if err != nil {
			return Date{}, false
		}
		return DateOf(parsed), true
	case time.Time:
		return DateOf(d), true
	case Date:
		return d, true
	}
	return Date{}, false
}

func toRange(value any) (Range, bool) {
	switch r := value.(type) {
	case Range:
		return r, r.Min <= r.Max
	case map[string]any:
		lo, okMin := toMinorUnits(r["min"])
		hi, okMax := toMinorUnits(r["max"])
		if !okMin || !okMax || len(r) != 2 {
			return Range{}, false
		}
		return Range{Min: Number(lo), Max: Number(hi)}, lo <= hi
	}
	return Range{}, false
}
