package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/budgetbot/internal/cli"
	"github.com/Veraticus/budgetbot/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage transaction rules",
		Long:  `List, add and delete the rules that run against imported transactions.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeRepo()

			rs, err := repo.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			rs.SetDisplayNames(cfg.Categories)

			return cli.RenderRuleList(cmd.OutOrStdout(), rs)
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var (
		conditions []string
		actions    []string
		operation  string
		stage      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a new rule",
		Long: `Append a rule built from condition and action flags.

Conditions are written field:op:value, actions op:field:value. Amounts are in
currency units, lists are JSON arrays and ranges are JSON objects.

Examples:
  budgetbot rules add \
    --condition 'description:contains:coffee' \
    --condition 'amount_outflow:gt:5.00' \
    --action 'set:category:9f1c6a3e-2b7d-4c1e-8f5a-0d3b6e7a4c21' \
    --action 'append-notes:: #coffee'

  budgetbot rules add --operation or \
    --condition 'description:oneOf:["Netflix","Hulu"]' \
    --action 'set-split-amount:fixed-percent@1:50'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rule, err := buildRule(operation, stage, conditions, actions)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeRepo()

			rs, err := repo.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			rs.Add(rule)
			if err := repo.Save(ctx, rs); err != nil {
				return fmt.Errorf("failed to save rules: %w", err)
			}

			rule.SetDisplayNames(cfg.Categories)
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %d added", rs.Len()-1)))
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", rule)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&conditions, "condition", nil, "condition as field:op:value (repeatable)")
	cmd.Flags().StringArrayVar(&actions, "action", nil, "action as op:field:value (repeatable)")
	cmd.Flags().StringVar(&operation, "operation", "and", "how conditions combine (and, or)")
	cmd.Flags().StringVar(&stage, "stage", "", "rule stage (pre, post)")

	return cmd
}

// buildRule turns the add flags into a validated rule.
func buildRule(operation, stage string, conditionSpecs, actionSpecs []string) (*rules.Rule, error) {
	conds := make([]*rules.Condition, 0, len(conditionSpecs))
	for _, spec := range conditionSpecs {
		c, err := parseCondition(spec)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}

	acts := make([]*rules.Action, 0, len(actionSpecs))
	for _, spec := range actionSpecs {
		a, err := parseAction(spec)
		if err != nil {
			return nil, err
		}
		acts = append(acts, a)
	}

	return rules.NewRule(operation, conds, acts, rules.Stage(stage))
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete a rule by its list index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule index %q: %w", args[0], err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeRepo()

			rs, err := repo.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			if err := rs.Remove(index); err != nil {
				return err
			}
			if err := repo.Save(ctx, rs); err != nil {
				return fmt.Errorf("failed to save rules: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %d deleted", index)))
			return nil
		},
	}
}
