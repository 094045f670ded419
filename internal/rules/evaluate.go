package rules

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// evaluator compares a transaction's field value against a condition.
type evaluator func(actual Value, c *Condition) (bool, error)

type evalKey struct {
	Type ValueType
	Op   ConditionType
}

// Amount and date tolerances for isapprox.
const (
	approxAmountRatio = 0.075
	approxDateDays    = 2
)

var tagPattern = regexp.MustCompile(`#[^\s#]+`)

// evaluators has exactly one entry per legal (type, operator) pair.
var evaluators = map[evalKey]evaluator{}

func init() {
	text := map[ConditionType]evaluator{
		OpIs:             textEquals,
		OpIsNot:          negate(textEquals),
		OpContains:       textContains,
		OpDoesNotContain: negate(textContains),
		OpOneOf:          oneOf(textEqualsValue),
		OpNotOneOf:       negate(oneOf(textEqualsValue)),
		OpMatches:        textMatches,
		OpHasTags:        hasTags,
	}
	for op, eval := range text {
		evaluators[evalKey{TypeString, op}] = eval
		evaluators[evalKey{TypeImportedPayee, op}] = eval
	}

	evaluators[evalKey{TypeID, OpIs}] = textEquals
	evaluators[evalKey{TypeID, OpIsNot}] = negate(textEquals)
	evaluators[evalKey{TypeID, OpOneOf}] = oneOf(textEqualsValue)
	evaluators[evalKey{TypeID, OpNotOneOf}] = negate(oneOf(textEqualsValue))

	evaluators[evalKey{TypeNumber, OpIs}] = compareNumbers(func(a, b int64) bool { return a == b })
	evaluators[evalKey{TypeNumber, OpGreater}] = compareNumbers(func(a, b int64) bool { return a > b })
	evaluators[evalKey{TypeNumber, OpGreaterEqual}] = compareNumbers(func(a, b int64) bool { return a >= b })
	evaluators[evalKey{TypeNumber, OpLess}] = compareNumbers(func(a, b int64) bool { return a < b })
	evaluators[evalKey{TypeNumber, OpLessEqual}] = compareNumbers(func(a, b int64) bool { return a <= b })
	evaluators[evalKey{TypeNumber, OpIsApprox}] = compareNumbers(func(a, b int64) bool {
		threshold := int64(math.Round(math.Abs(float64(b)) * approxAmountRatio))
		return a >= b-threshold && a <= b+threshold
	})
	evaluators[evalKey{TypeNumber, OpIsBetween}] = numberBetween

	evaluators[evalKey{TypeDate, OpIs}] = compareDates(func(cmp int) bool { return cmp == 0 })
	evaluators[evalKey{TypeDate, OpGreater}] = compareDates(func(cmp int) bool { return cmp > 0 })
	evaluators[evalKey{TypeDate, OpGreaterEqual}] = compareDates(func(cmp int) bool { return cmp >= 0 })
	evaluators[evalKey{TypeDate, OpLess}] = compareDates(func(cmp int) bool { return cmp < 0 })
	evaluators[evalKey{TypeDate, OpLessEqual}] = compareDates(func(cmp int) bool { return cmp <= 0 })
	evaluators[evalKey{TypeDate, OpIsApprox}] = dateApprox

	evaluators[evalKey{TypeBoolean, OpIs}] = boolEquals
}

func negate(eval evaluator) evaluator {
	return func(actual Value, c *Condition) (bool, error) {
		ok, err := eval(actual, c)
		return !ok && err == nil, err
	}
}

// textOf returns the text of a string or identifier value; unset values read as "".
func textOf(v Value) (string, bool) {
	switch x := v.(type) {
	case String:
		return string(x), true
	case ID:
		return string(x), true
	case Null:
		return "", true
	}
	return "", false
}

func mismatch(actual, want Value, c *Condition) error {
	return fmt.Errorf("%w: cannot compare %s with %s for %q", ErrInvalidValue, actual, want, c.Op)
}

func textEquals(actual Value, c *Condition) (bool, error) {
	return textEqualsValue(actual, c.Value, c)
}

func textEqualsValue(actual, want Value, c *Condition) (bool, error) {
	a, okA := textOf(actual)
	w, okW := textOf(want)
	if !okA || !okW {
		return false, mismatch(actual, want, c)
	}
	if isUnset(want) {
		return a == "", nil
	}
	return strings.EqualFold(a, w), nil
}

func oneOf(eq func(Value, Value, *Condition) (bool, error)) evaluator {
	return func(actual Value, c *Condition) (bool, error) {
		list, ok := c.Value.(List)
		if !ok {
			list = List{c.Value}
		}
		for _, want := range list {
			match, err := eq(actual, want, c)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
		return false, nil
	}
}

func textContains(actual Value, c *Condition) (bool, error) {
	a, okA := textOf(actual)
	w, okW := textOf(c.Value)
	if !okA || !okW {
		return false, mismatch(actual, c.Value, c)
	}
	return strings.Contains(strings.ToLower(a), strings.ToLower(w)), nil
}

func textMatches(actual Value, c *Condition) (bool, error) {
	a, ok := textOf(actual)
	if !ok || c.pattern == nil {
		return false, mismatch(actual, c.Value, c)
	}
	return c.pattern.MatchString(a), nil
}

func hasTags(actual Value, c *Condition) (bool, error) {
	a, okA := textOf(actual)
	w, okW := textOf(c.Value)
	if !okA || !okW {
		return false, mismatch(actual, c.Value, c)
	}
	want := tagPattern.FindAllString(w, -1)
	if len(want) == 0 {
		return false, nil
	}
	have := make(map[string]struct{})
	for _, tag := range tagPattern.FindAllString(a, -1) {
		have[strings.ToLower(tag)] = struct{}{}
	}
	for _, tag := range want {
		if _, ok := have[strings.ToLower(tag)]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func compareNumbers(pred func(a, b int64) bool) evaluator {
	return func(actual Value, c *Condition) (bool, error) {
		a, okA := actual.(Number)
		w, okW := c.Value.(Number)
		if !okA || !okW {
			return false, mismatch(actual, c.Value, c)
		}
		return pred(int64(a), int64(w)), nil
	}
}

func numberBetween(actual Value, c *Condition) (bool, error) {
	a, okA := actual.(Number)
	r, okR := c.Value.(Range)
	if !okA || !okR {
		return false, mismatch(actual, c.Value, c)
	}
	return a >= r.Min && a <= r.Max, nil
}

func compareDates(pred func(cmp int) bool) evaluator {
	return func(actual Value, c *Condition) (bool, error) {
		a, okA := actual.(Date)
		w, okW := c.Value.(Date)
		if !okA || !okW {
			return false, mismatch(actual, c.Value, c)
		}
		return pred(a.Compare(w)), nil
	}
}

func dateApprox(actual Value, c *Condition) (bool, error) {
	a, okA := actual.(Date)
	w, okW := c.Value.(Date)
	if !okA || !okW {
		return false, mismatch(actual, c.Value, c)
	}
	lo := DateOf(w.Time().AddDate(0, 0, -approxDateDays))
	hi := DateOf(w.Time().AddDate(0, 0, approxDateDays))
	return a.Compare(lo) >= 0 && a.Compare(hi) <= 0, nil
}

func boolEquals(actual Value, c *Condition) (bool, error) {
	a, okA := actual.(Boolean)
	w, okW := c.Value.(Boolean)
	if !okA || !okW {
		return false, mismatch(actual, c.Value, c)
	}
	return a == w, nil
}
