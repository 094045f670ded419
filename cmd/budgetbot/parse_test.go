package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budgetbot/internal/rules"
)

const (
	diningID   = "9f1c6a3e-2b7d-4c1e-8f5a-0d3b6e7a4c21"
	scheduleID = "5e6f7a8b-9c0d-4e1f-a2b3-c4d5e6f7a8b9"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		want *rules.Condition
		spec string
	}{
		{
			spec: "description:contains:coffee",
			want: &rules.Condition{Field: "description", Op: rules.OpContains, Type: rules.TypeString, Value: rules.String("coffee")},
		},
		{
			spec: "description:matches:^(BLUE|PEET):S",
			want: &rules.Condition{Field: "description", Op: rules.OpMatches, Type: rules.TypeString, Value: rules.String("^(BLUE|PEET):S")},
		},
		{
			spec: "amount:gt:5.00",
			want: &rules.Condition{Field: "amount", Op: rules.OpGreater, Type: rules.TypeNumber, Value: rules.Number(500)},
		},
		{
			spec: "amount_outflow:gte:20",
			want: &rules.Condition{
				Field: "amount", Op: rules.OpGreaterEqual, Type: rules.TypeNumber, Value: rules.Number(2000),
				Options: &rules.ConditionOptions{Outflow: true},
			},
		},
		{
			spec: `amount:isbetween:{"min":10,"max":12.5}`,
			want: &rules.Condition{Field: "amount", Op: rules.OpIsBetween, Type: rules.TypeNumber, Value: rules.Range{Min: 1000, Max: 1250}},
		},
		{
			spec: `description:oneOf:["Netflix","Hulu"]`,
			want: &rules.Condition{Field: "description", Op: rules.OpOneOf, Type: rules.TypeString, Value: rules.List{rules.String("Netflix"), rules.String("Hulu")}},
		},
		{
			spec: "category:oneOf:" + diningID,
			want: &rules.Condition{Field: "category", Op: rules.OpOneOf, Type: rules.TypeID, Value: rules.List{rules.ID(diningID)}},
		},
		{
			spec: "category:is:null",
			want: &rules.Condition{Field: "category", Op: rules.OpIs, Type: rules.TypeID, Value: rules.Null{}},
		},
		{
			spec: "cleared:is:true",
			want: &rules.Condition{Field: "cleared", Op: rules.OpIs, Type: rules.TypeBoolean, Value: rules.Boolean(true)},
		},
		{
			spec: "date:isapprox:2024-03-15",
			want: &rules.Condition{Field: "date", Op: rules.OpIsApprox, Type: rules.TypeDate, Value: rules.Date{Year: 2024, Month: 3, Day: 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseCondition(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want.String(), got.String())
			assert.Equal(t, tt.want.Value, got.Value)
			assert.Equal(t, tt.want.Options, got.Options)
			assert.Equal(t, tt.want.Field, got.Field)
		})
	}
}

func TestParseCondition_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		spec    string
	}{
		{spec: "description:contains", wantErr: errBadSpec},
		{spec: "payee:is:x", wantErr: rules.ErrUnknownField},
		{spec: "amount:gt:lots", wantErr: errBadSpec},
		{spec: "cleared:is:maybe", wantErr: errBadSpec},
		{spec: "amount:isbetween:10-20", wantErr: errBadSpec},
		{spec: `description:oneOf:["a",`, wantErr: errBadSpec},
		{spec: "amount:contains:5", wantErr: rules.ErrUnsupportedOperation},
		{spec: "category:is:dining", wantErr: rules.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := parseCondition(tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		want *rules.Action
		spec string
	}{
		{
			spec: "set:category:" + diningID,
			want: &rules.Action{Op: rules.ActionSet, Field: "category", Type: rules.TypeID, Value: rules.ID(diningID)},
		},
		{
			spec: "set:category:null",
			want: &rules.Action{Op: rules.ActionSet, Field: "category", Type: rules.TypeID, Value: rules.Null{}},
		},
		{
			spec: "set:cleared:false",
			want: &rules.Action{Op: rules.ActionSet, Field: "cleared", Type: rules.TypeBoolean, Value: rules.Boolean(false)},
		},
		{
			spec: "append-notes:: #coffee",
			want: &rules.Action{Op: rules.ActionAppendNotes, Type: rules.TypeString, Value: rules.String(" #coffee")},
		},
		{
			spec: "prepend-notes::[review] ",
			want: &rules.Action{Op: rules.ActionPrependNotes, Type: rules.TypeString, Value: rules.String("[review] ")},
		},
		{
			spec: "link-schedule::" + scheduleID,
			want: &rules.Action{Op: rules.ActionLinkSchedule, Type: rules.TypeID, Value: rules.ID(scheduleID)},
		},
		{
			spec: "set-split-amount:fixed-amount@1:12.5",
			want: &rules.Action{
				Op: rules.ActionSetSplitAmount, Type: rules.TypeNumber, Value: rules.Number(1250),
				Options: &rules.ActionOptions{Method: "fixed-amount", SplitIndex: 1},
			},
		},
		{
			spec: "set-split-amount:remainder:0",
			want: &rules.Action{
				Op: rules.ActionSetSplitAmount, Type: rules.TypeNumber, Value: rules.Number(0),
				Options: &rules.ActionOptions{Method: "remainder"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseAction(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Op, got.Op)
			assert.Equal(t, tt.want.Field, got.Field)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.Value, got.Value)
			assert.Equal(t, tt.want.Options, got.Options)
		})
	}
}

func TestParseAction_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		spec    string
	}{
		{spec: "set:category", wantErr: errBadSpec},
		{spec: "set:payee:x", wantErr: rules.ErrUnknownField},
		{spec: "set-split-amount:fixed-amount@one:5", wantErr: errBadSpec},
		{spec: "set-split-amount:evenly@1:5", wantErr: rules.ErrInvalidValue},
		{spec: "link-schedule::monthly", wantErr: rules.ErrInvalidValue},
		{spec: "delete:category:x", wantErr: rules.ErrUnsupportedOperation},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := parseAction(tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildRule(t *testing.T) {
	rule, err := buildRule("or", "pre",
		[]string{"description:contains:coffee", "amount_outflow:gt:5"},
		[]string{"set:category:" + diningID})
	require.NoError(t, err)
	assert.Equal(t, rules.OperationOr, rule.Operation)
	assert.Equal(t, rules.StagePre, rule.Stage)
	assert.Len(t, rule.Conditions, 2)
	assert.Len(t, rule.Actions, 1)

	_, err = buildRule("xor", "", nil, nil)
	require.ErrorIs(t, err, rules.ErrUnsupportedOperation)

	_, err = buildRule("and", "during", nil, nil)
	require.ErrorIs(t, err, rules.ErrInvalidValue)
}

func TestDecodeTransactions(t *testing.T) {
	txns, err := decodeTransactions([]byte(`[{"id":"t1","payee":"Blue Bottle","amount":-1250,"category":null}]`))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, int64(-1250), txns[0].Amount)
	assert.Nil(t, txns[0].Category)

	_, err = decodeTransactions([]byte(`[null]`))
	require.Error(t, err)

	_, err = decodeTransactions([]byte(`{"id":"t1"}`))
	require.Error(t, err)
}
