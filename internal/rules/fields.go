package rules

import (
	"fmt"
	"time"

	"github.com/Veraticus/budgetbot/internal/model"
)

// fieldAccessor reads and writes one rule field on a transaction.
type fieldAccessor struct {
	get func(*model.Transaction) Value
	set func(*model.Transaction, Value) error
}

var accessors = map[string]fieldAccessor{
	FieldAccount: {
		get: func(t *model.Transaction) Value { return ID(t.AccountID) },
		set: func(t *model.Transaction, v Value) error {
			id, err := asID(v)
			if err != nil {
				return err
			}
			t.AccountID = id
			return nil
		},
	},
	FieldCategory: {
		get: func(t *model.Transaction) Value {
			if t.Category == nil {
				return Null{}
			}
			return ID(*t.Category)
		},
		set: func(t *model.Transaction, v Value) error {
			if _, ok := v.(Null); ok {
				t.Category = nil
				return nil
			}
			id, err := asID(v)
			if err != nil {
				return err
			}
			t.Category = &id
			return nil
		},
	},
	FieldNotes: {
		get: func(t *model.Transaction) Value { return String(t.Notes) },
		set: func(t *model.Transaction, v Value) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			t.Notes = s
			return nil
		},
	},
	FieldDescription: {
		get: func(t *model.Transaction) Value { return String(t.Payee) },
		set: func(t *model.Transaction, v Value) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			t.Payee = s
			return nil
		},
	},
	FieldImportedDescription: {
		get: func(t *model.Transaction) Value { return String(t.ImportedPayee) },
		set: func(t *model.Transaction, v Value) error {
			s, err := asString(v)
			if err != nil {
				return err
			}
			t.ImportedPayee = s
			return nil
		},
	},
	// A transaction always carries a date and an amount, so null leaves them as they are.
	FieldDate: {
		get: func(t *model.Transaction) Value { return DateOf(t.Date) },
		set: func(t *model.Transaction, v Value) error {
			if _, ok := v.(Null); ok {
				return nil
			}
			d, ok := v.(Date)
			if !ok {
				return fmt.Errorf("%w: cannot assign %s to date", ErrInvalidValue, v)
			}
			loc := t.Date.Location()
			if t.Date.IsZero() {
				loc = time.UTC
			}
			t.Date = time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
			return nil
		},
	},
	FieldCleared: {
		get: func(t *model.Transaction) Value { return Boolean(t.Cleared) },
		set: func(t *model.Transaction, v Value) error {
			b, err := asBool(v)
			if err != nil {
				return err
			}
			t.Cleared = b
			return nil
		},
	},
	FieldReconciled: {
		get: func(t *model.Transaction) Value { return Boolean(t.Reconciled) },
		set: func(t *model.Transaction, v Value) error {
			b, err := asBool(v)
			if err != nil {
				return err
			}
			t.Reconciled = b
			return nil
		},
	},
	FieldAmount: {
		get: func(t *model.Transaction) Value { return Number(t.Amount) },
		set: func(t *model.Transaction, v Value) error {
			if _, ok := v.(Null); ok {
				return nil
			}
			n, ok := v.(Number)
			if !ok {
				return fmt.Errorf("%w: cannot assign %s to amount", ErrInvalidValue, v)
			}
			t.Amount = int64(n)
			return nil
		},
	},
}

// fieldValue reads a field off a transaction.
func fieldValue(t *model.Transaction, field string) (Value, error) {
	acc, ok := accessors[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not readable", ErrUnknownField, field)
	}
	return acc.get(t), nil
}

// setField writes a field on a transaction.
func setField(t *model.Transaction, field string, v Value) error {
	acc, ok := accessors[field]
	if !ok {
		return fmt.Errorf("%w: %q is not writable", ErrUnknownField, field)
	}
	return acc.set(t, v)
}

func asID(v Value) (string, error) {
	switch x := v.(type) {
	case ID:
		return string(x), nil
	case Null:
		return "", nil
	}
	return "", fmt.Errorf("%w: %s is not an identifier", ErrInvalidValue, v)
}

func asString(v Value) (string, error) {
	switch x := v.(type) {
	case String:
		return string(x), nil
	case Null:
		return "", nil
	}
	return "", fmt.Errorf("%w: %s is not a string", ErrInvalidValue, v)
}

func asBool(v Value) (bool, error) {
	switch x := v.(type) {
	case Boolean:
		return bool(x), nil
	case Null:
		return false, nil
	}
	return false, fmt.Errorf("%w: %s is not a boolean", ErrInvalidValue, v)
}
