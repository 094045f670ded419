package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/budgetbot/internal/rules"
)

// RenderRuleList writes the rule set as a numbered table. Indexes match the
// ones accepted by "rules delete".
func RenderRuleList(w io.Writer, rs *rules.RuleSet) error {
	if rs.Len() == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No rules found. Use 'budgetbot rules add' to create one."))
		return err
	}

	if _, err := fmt.Fprintln(w, FormatTitle("Rules")); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n",
		TableHeaderStyle.Render("#"),
		TableHeaderStyle.Render("Stage"),
		TableHeaderStyle.Render("Rule")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n",
		strings.Repeat("─", 3),
		strings.Repeat("─", 5),
		strings.Repeat("─", 40)); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for i, r := range rs.Rules {
		stage := string(r.Stage)
		if stage == "" {
			stage = SubtleStyle.Render("-")
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\n", i, stage, r); err != nil {
			return fmt.Errorf("failed to write rule row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderSummary formats the outcome of applying a rule set.
func RenderSummary(summary rules.ApplySummary, dryRun bool) string {
	title := "Rules Applied"
	if dryRun {
		title = "Dry Run"
	}
	content := fmt.Sprintf("  • Transactions: %d\n", summary.Transactions) +
		fmt.Sprintf("  • Matched: %d\n", summary.Matched) +
		fmt.Sprintf("  • Rule hits: %d", summary.RuleHits)
	return RenderBox(title, content)
}
