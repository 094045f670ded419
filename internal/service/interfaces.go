// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/budgetbot/internal/model"
	"github.com/Veraticus/budgetbot/internal/rules"
)

// RuleRepository persists a rule set as one document. Load returns an empty
// rule set when nothing has been stored yet and fails with
// rules.ErrPersistence when the stored document is corrupt.
type RuleRepository interface {
	Load(ctx context.Context) (*rules.RuleSet, error)
	Save(ctx context.Context, rs *rules.RuleSet) error
}

// TransactionSource yields a batch of ledger transactions to run rules against.
type TransactionSource interface {
	Transactions(ctx context.Context) ([]*model.Transaction, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
