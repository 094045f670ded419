package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/rules"
)

const diningID = "9f1c6a3e-2b7d-4c1e-8f5a-0d3b6e7a4c21"

func sampleRuleSet(t *testing.T) *rules.RuleSet {
	t.Helper()

	payee, err := rules.NewCondition(rules.FieldDescription, rules.OpContains, "coffee")
	require.NoError(t, err)
	outflow, err := rules.NewCondition(rules.FieldAmountOutflow, rules.OpGreater, 5.00)
	require.NoError(t, err)
	category, err := rules.NewAction(rules.FieldCategory, rules.ActionSet, diningID)
	require.NoError(t, err)
	notes, err := rules.NewAction("", rules.ActionAppendNotes, " #coffee")
	require.NoError(t, err)

	rule, err := rules.NewRule("and", []*rules.Condition{payee, outflow}, []*rules.Action{category, notes}, rules.StagePre)
	require.NoError(t, err)

	return rules.NewRuleSet(rule)
}
