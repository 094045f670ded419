package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type documentJSON struct {
	Rules []*Rule `json:"rules"`
}

type ruleJSON struct {
	Stage      *Stage       `json:"stage"`
	Operation  string       `json:"operation"`
	Conditions []*Condition `json:"conditions"`
	Actions    []*Action    `json:"actions"`
}

type conditionJSON struct {
	Options *ConditionOptions `json:"options,omitempty"`
	Value   json.RawMessage   `json:"value"`
	Field   string            `json:"field"`
	Op      ConditionType     `json:"op"`
	Type    ValueType         `json:"type"`
}

type actionJSON struct {
	Options *ActionOptions  `json:"options,omitempty"`
	Value   json.RawMessage `json:"value"`
	Field   string          `json:"field,omitempty"`
	Op      ActionType      `json:"op"`
	Type    ValueType       `json:"type"`
}

// Encode serializes the rule set as a rule document.
func Encode(rs *RuleSet) ([]byte, error) {
	doc := documentJSON{Rules: rs.Rules}
	if doc.Rules == nil {
		doc.Rules = []*Rule{}
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("%w: encoding rules: %v", ErrPersistence, err)
	}
	return data, nil
}

// Decode parses a rule document. Every condition and action is validated as
// it is read; monetary values are taken as stored, in minor units.
func Decode(data []byte) (*RuleSet, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding rules: %w", ErrPersistence, err)
	}
	if doc.Rules == nil {
		doc.Rules = []*Rule{}
	}
	for i, r := range doc.Rules {
		if r == nil {
			return nil, fmt.Errorf("%w: rule %d is null", ErrPersistence, i)
		}
	}
	return &RuleSet{Rules: doc.Rules}, nil
}

// MarshalJSON implements json.Marshaler.
func (r *Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{
		Operation:  string(r.Operation),
		Conditions: r.Conditions,
		Actions:    r.Actions,
	}
	if out.Conditions == nil {
		out.Conditions = []*Condition{}
	}
	if out.Actions == nil {
		out.Actions = []*Action{}
	}
	if r.Stage != StageNone {
		stage := r.Stage
		out.Stage = &stage
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	stage := StageNone
	if in.Stage != nil {
		stage = *in.Stage
	}
	rule, err := NewRule(in.Operation, in.Conditions, in.Actions, stage)
	if err != nil {
		return err
	}
	*r = *rule
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c *Condition) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(c.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(conditionJSON{
		Field:   c.Field,
		Op:      c.Op,
		Value:   value,
		Type:    c.Type,
		Options: c.Options,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var in conditionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	value, err := decodeValue(in.Value)
	if err != nil {
		return err
	}
	cond, err := buildCondition(ConditionInput{
		Field:   in.Field,
		Op:      in.Op,
		Value:   value,
		Type:    in.Type,
		Options: in.Options,
	}, false)
	if err != nil {
		return err
	}
	*c = *cond
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a *Action) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(a.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(actionJSON{
		Field:   a.Field,
		Op:      a.Op,
		Value:   value,
		Type:    a.Type,
		Options: a.Options,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Action) UnmarshalJSON(data []byte) error {
	var in actionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	value, err := decodeValue(in.Value)
	if err != nil {
		return err
	}
	act, err := buildAction(ActionInput{
		Field:   in.Field,
		Op:      in.Op,
		Value:   value,
		Type:    in.Type,
		Options: in.Options,
	}, false)
	if err != nil {
		return err
	}
	*a = *act
	return nil
}

// decodeValue reads a stored value keeping integers exact. Non-integral
// numbers are left as json.Number, which no value type accepts.
func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return exactNumbers(v), nil
}

func exactNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		return x
	case []any:
		for i := range x {
			x[i] = exactNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = exactNumbers(x[k])
		}
		return x
	}
	return v
}
