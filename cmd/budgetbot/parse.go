package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/budgetbot/internal/model"
	"github.com/Veraticus/budgetbot/internal/rules"
)

var errBadSpec = errors.New("malformed rule flag")

// parseCondition reads a condition flag of the form field:op:value.
func parseCondition(spec string) (*rules.Condition, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: condition %q, want field:op:value", errBadSpec, spec)
	}
	field, op := parts[0], rules.ConditionType(parts[1])

	vt, err := rules.TypeForField(field)
	if err != nil {
		return nil, err
	}
	value, err := parseValue(vt, op, parts[2])
	if err != nil {
		return nil, fmt.Errorf("condition %q: %w", spec, err)
	}
	return rules.NewCondition(field, op, value)
}

// parseAction reads an action flag of the form op:field:value. Notes and
// schedule actions leave the field empty. set-split-amount puts the split
// placement in the field slot as method@index.
func parseAction(spec string) (*rules.Action, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: action %q, want op:field:value", errBadSpec, spec)
	}
	in := rules.ActionInput{Op: rules.ActionType(parts[0])}

	var vt rules.ValueType
	switch in.Op {
	case rules.ActionSetSplitAmount:
		opts, err := parseSplitPlacement(parts[1])
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", spec, err)
		}
		in.Options = opts
		vt = rules.TypeNumber
	case rules.ActionLinkSchedule:
		vt = rules.TypeID
	case rules.ActionAppendNotes, rules.ActionPrependNotes:
		vt = rules.TypeString
	default:
		in.Field = parts[1]
		t, err := rules.TypeForField(in.Field)
		if err != nil {
			return nil, err
		}
		vt = t
	}

	value, err := parseValue(vt, "", parts[2])
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", spec, err)
	}
	in.Value = value
	return rules.BuildAction(in)
}

func parseSplitPlacement(s string) (*rules.ActionOptions, error) {
	if s == "" {
		return nil, nil
	}
	method, index, found := strings.Cut(s, "@")
	opts := &rules.ActionOptions{Method: method}
	if found {
		n, err := strconv.Atoi(index)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: split index %q", errBadSpec, index)
		}
		opts.SplitIndex = n
	}
	return opts, nil
}

// parseValue turns command-line text into the raw value a condition or
// action expects. Amounts are given in currency units; "null" means unset.
func parseValue(vt rules.ValueType, op rules.ConditionType, raw string) (any, error) {
	if raw == "null" {
		return nil, nil
	}

	if op == rules.OpOneOf || op == rules.OpNotOneOf {
		if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
			return parseValue(vt, "", raw)
		}
		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("%w: list %q: %v", errBadSpec, raw, err)
		}
		return list, nil
	}

	switch vt {
	case rules.TypeNumber:
		if op == rules.OpIsBetween {
			var r map[string]any
			if err := json.Unmarshal([]byte(raw), &r); err != nil {
				return nil, fmt.Errorf("%w: range %q: %v", errBadSpec, raw, err)
			}
			return r, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q", errBadSpec, raw)
		}
		return f, nil
	case rules.TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: boolean %q", errBadSpec, raw)
		}
		return b, nil
	}
	return raw, nil
}

// decodeTransactions reads a JSON array of transactions.
func decodeTransactions(data []byte) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}
	for i, txn := range txns {
		if txn == nil {
			return nil, fmt.Errorf("decoding transactions: entry %d is null", i)
		}
	}
	return txns, nil
}
