package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/budgetbot/internal/model"
)

// RuleSet is an ordered collection of rules. Rules have no identity beyond
// their position.
type RuleSet struct {
	Rules []*Rule
}

// NewRuleSet returns a rule set holding rules in the given order.
func NewRuleSet(rules ...*Rule) *RuleSet {
	return &RuleSet{Rules: rules}
}

// Add appends a rule.
func (rs *RuleSet) Add(rule *Rule) {
	rs.Rules = append(rs.Rules, rule)
}

// Remove deletes the rule at index, shifting later rules down.
func (rs *RuleSet) Remove(index int) error {
	if index < 0 || index >= len(rs.Rules) {
		return fmt.Errorf("rule index %d out of range [0, %d)", index, len(rs.Rules))
	}
	rs.Rules = append(rs.Rules[:index], rs.Rules[index+1:]...)
	return nil
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.Rules)
}

// SetDisplayNames attaches the display-name map to every action of every rule.
func (rs *RuleSet) SetDisplayNames(names map[string]string) {
	for _, r := range rs.Rules {
		r.SetDisplayNames(names)
	}
}

// ApplySummary counts what a batch apply did.
type ApplySummary struct {
	Transactions int
	Matched      int
	RuleHits     int
}

// Apply runs every rule, in order, against each transaction. A later rule
// sees the changes an earlier rule made to the same transaction.
func (rs *RuleSet) Apply(txns []*model.Transaction) (ApplySummary, error) {
	return rs.applySequential(context.Background(), txns)
}

func (rs *RuleSet) applySequential(ctx context.Context, txns []*model.Transaction) (ApplySummary, error) {
	summary := ApplySummary{Transactions: len(txns)}
	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		hits, err := rs.applyOne(txn)
		if err != nil {
			return summary, err
		}
		summary.RuleHits += hits
		if hits > 0 {
			summary.Matched++
		}
	}
	return summary, nil
}

// ApplyConcurrent is Apply with transactions spread over up to workers
// goroutines. Each transaction is processed start to finish by one goroutine.
// Cancellation is observed between transactions only.
func (rs *RuleSet) ApplyConcurrent(ctx context.Context, txns []*model.Transaction, workers int) (ApplySummary, error) {
	if workers <= 1 {
		return rs.applySequential(ctx, txns)
	}

	hits := make([]int, len(txns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, txn := range txns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := rs.applyOne(txn)
			hits[i] = n
			return err
		})
	}
	err := g.Wait()

	summary := ApplySummary{Transactions: len(txns)}
	for _, n := range hits {
		summary.RuleHits += n
		if n > 0 {
			summary.Matched++
		}
	}
	return summary, err
}

func (rs *RuleSet) applyOne(txn *model.Transaction) (int, error) {
	if txn == nil {
		return 0, fmt.Errorf("%w: nil transaction", ErrInvalidValue)
	}
	hits := 0
	for i, r := range rs.Rules {
		matched, err := r.Run(txn)
		if err != nil {
			return hits, fmt.Errorf("rule %d on transaction %q: %w", i, txn.ID, err)
		}
		if matched {
			hits++
			slog.Debug("Rule matched", "rule", i, "transaction", txn.ID)
		}
	}
	return hits, nil
}

func (rs *RuleSet) String() string {
	lines := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}
