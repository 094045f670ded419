// Package model defines the core data structures for the budgetbot application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single ledger entry fetched from the budgeting service.
// Amounts are integer minor currency units; negative amounts are outflows.
type Transaction struct {
	Date          time.Time         `json:"date"`
	Category      *string           `json:"category"`
	Schedule      *string           `json:"schedule,omitempty"`
	ID            string            `json:"id"`
	Payee         string            `json:"payee"`
	ImportedPayee string            `json:"imported_payee,omitempty"`
	Notes         string            `json:"notes"`
	AccountID     string            `json:"acct"`
	Splits        []SplitAllocation `json:"splits,omitempty"`
	Amount        int64             `json:"amount"`
	Cleared       bool              `json:"cleared"`
	Reconciled    bool              `json:"reconciled"`
}

// SplitAllocation records a requested split of a transaction. The ledger
// integration turns these into child transactions when the batch is committed.
type SplitAllocation struct {
	Amount *int64 `json:"amount,omitempty"`
	Method string `json:"method,omitempty"`
	Index  int    `json:"index"`
}

// Split allocation methods.
const (
	SplitFixedAmount  = "fixed-amount"
	SplitFixedPercent = "fixed-percent"
	SplitRemainder    = "remainder"
)

// SetSplit records an allocation for the given split index, replacing any
// allocation already recorded at that index.
func (t *Transaction) SetSplit(alloc SplitAllocation) {
	for i := range t.Splits {
		if t.Splits[i].Index == alloc.Index {
			t.Splits[i] = alloc
			return
		}
	}
	t.Splits = append(t.Splits, alloc)
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%d:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Payee,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Category != nil {
		category := *t.Category
		c.Category = &category
	}
	if t.Schedule != nil {
		schedule := *t.Schedule
		c.Schedule = &schedule
	}
	if t.Splits != nil {
		c.Splits = make([]SplitAllocation, len(t.Splits))
		for i, alloc := range t.Splits {
			if alloc.Amount != nil {
				amount := *alloc.Amount
				alloc.Amount = &amount
			}
			c.Splits[i] = alloc
		}
	}
	return &c
}
