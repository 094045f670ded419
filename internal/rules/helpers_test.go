package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/model"
)

const (
	diningID    = "9f1c6a3e-2b7d-4c1e-8f5a-0d3b6e7a4c21"
	groceriesID = "3b8e2f10-7c4a-4d6b-9e21-5a0f8c7d1b34"
	checkingID  = "c2d4e6f8-1a3b-4c5d-8e7f-9a0b1c2d3e4f"
	scheduleID  = "5e6f7a8b-9c0d-4e1f-a2b3-c4d5e6f7a8b9"
)

// testTransaction returns a categorized coffee purchase.
func testTransaction() *model.Transaction {
	category := groceriesID
	return &model.Transaction{
		ID:            "txn-1",
		Date:          time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		Payee:         "Blue Bottle Coffee",
		ImportedPayee: "BLUE BOTTLE #1234 OAKLAND",
		Notes:         "morning #coffee #work",
		Category:      &category,
		AccountID:     checkingID,
		Amount:        -1250,
		Cleared:       true,
	}
}

func mustCondition(t *testing.T, field string, op ConditionType, value any) *Condition {
	t.Helper()
	c, err := NewCondition(field, op, value)
	require.NoError(t, err)
	return c
}

func mustAction(t *testing.T, field string, op ActionType, value any) *Action {
	t.Helper()
	a, err := NewAction(field, op, value)
	require.NoError(t, err)
	return a
}

func mustBuildAction(t *testing.T, in ActionInput) *Action {
	t.Helper()
	a, err := BuildAction(in)
	require.NoError(t, err)
	return a
}

func mustRule(t *testing.T, operation string, conditions []*Condition, actions []*Action, stage Stage) *Rule {
	t.Helper()
	r, err := NewRule(operation, conditions, actions, stage)
	require.NoError(t, err)
	return r
}

// coffeeRuleSet exercises both operations, a directional amount, a stage and
// every action kind that renders differently.
func coffeeRuleSet(t *testing.T) *RuleSet {
	t.Helper()

	first := mustRule(t, "and",
		[]*Condition{
			mustCondition(t, FieldDescription, OpContains, "coffee"),
			mustCondition(t, FieldAmountOutflow, OpGreater, 5.00),
		},
		[]*Action{
			mustAction(t, FieldCategory, ActionSet, diningID),
			mustAction(t, "", ActionAppendNotes, " #coffee"),
		},
		StagePre)

	second := mustRule(t, "or",
		[]*Condition{
			mustCondition(t, FieldAccount, OpIs, checkingID),
			mustCondition(t, FieldDate, OpIsApprox, "2024-03-15"),
		},
		[]*Action{
			mustAction(t, "", ActionLinkSchedule, scheduleID),
			mustBuildAction(t, ActionInput{
				Op:      ActionSetSplitAmount,
				Value:   12.5,
				Options: &ActionOptions{Method: model.SplitFixedAmount, SplitIndex: 1},
			}),
		},
		StageNone)

	return NewRuleSet(first, second)
}
