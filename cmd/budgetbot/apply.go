package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/budgetbot/internal/cli"
	"github.com/Veraticus/budgetbot/internal/common"
	"github.com/Veraticus/budgetbot/internal/model"
	"github.com/Veraticus/budgetbot/internal/ofx"
	"github.com/Veraticus/budgetbot/internal/rules"
	"github.com/Veraticus/budgetbot/internal/service"
)

const applyChunkSize = 250

// jsonFileSource reads transactions from a JSON array on disk.
type jsonFileSource struct {
	path string
}

func (s jsonFileSource) Transactions(ctx context.Context) ([]*model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return decodeTransactions(data)
}

func applyCmd() *cobra.Command {
	var (
		input   string
		ofxFile string
		output  string
		dryRun  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Run every rule against a batch of transactions",
		Long: `Load transactions from a JSON file or an OFX/QFX export, run the rule set
over them in order and write the updated transactions as JSON.

Examples:
  budgetbot apply --input march.json --output march-ruled.json
  budgetbot apply --ofx ~/Downloads/checking.qfx --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			source, err := selectSource(input, ofxFile)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}

			repo, closeRepo, err := openRepository(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeRepo()

			rs, err := repo.Load(ctx)
			if err != nil {
				common.LogError(err, "Failed to load rules", common.Fields{"backend": cfg.Backend})
				return fmt.Errorf("failed to load rules: %w", err)
			}

			txns, err := source.Transactions(ctx)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				return common.NewUserError("nothing to apply rules to", common.ErrNoTransactions)
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Interrupted, no transactions were written")
			ctx = handler.HandleInterrupts(ctx)
			defer handler.Stop()

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(txns), "Applying rules")
			summary, err := applyInChunks(ctx, rs, txns, workers, func(n int) {
				_ = bar.Add(n)
			})
			_ = bar.Finish()
			if err != nil {
				if handler.WasInterrupted() {
					return nil
				}
				common.LogError(err, "Failed to apply rules", common.Fields{
					"processed": summary.Transactions,
					"workers":   workers,
				})
				return fmt.Errorf("failed to apply rules: %w", err)
			}

			common.LogInfo("Applied rules", common.Fields{
				"rules":        rs.Len(),
				"transactions": summary.Transactions,
				"matched":      summary.Matched,
			})

			if dryRun {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Dry run: no transactions were written"))
			} else if err := writeTransactions(cmd.OutOrStdout(), output, txns); err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), cli.RenderSummary(summary, dryRun))
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "JSON file of transactions")
	cmd.Flags().StringVar(&ofxFile, "ofx", "", "OFX/QFX file of transactions")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write updated transactions here (default: stdout)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing transactions")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent workers")

	return cmd
}

func selectSource(input, ofxFile string) (service.TransactionSource, error) {
	switch {
	case input != "" && ofxFile != "":
		return nil, common.NewUserError("use either --input or --ofx, not both", common.ErrUnknownFormat)
	case input != "":
		return jsonFileSource{path: input}, nil
	case ofxFile != "":
		return ofx.NewFileSource(ofxFile), nil
	}
	return nil, common.NewUserError("one of --input or --ofx is required", common.ErrNoTransactions)
}

// applyInChunks runs the rule set over txns one chunk at a time so progress
// can be reported and cancellation is noticed between chunks.
func applyInChunks(ctx context.Context, rs *rules.RuleSet, txns []*model.Transaction, workers int, progress func(int)) (rules.ApplySummary, error) {
	var total rules.ApplySummary
	for start := 0; start < len(txns); start += applyChunkSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(start+applyChunkSize, len(txns))

		summary, err := rs.ApplyConcurrent(ctx, txns[start:end], workers)
		total.Transactions += summary.Transactions
		total.Matched += summary.Matched
		total.RuleHits += summary.RuleHits
		if err != nil {
			return total, err
		}
		if progress != nil {
			progress(end - start)
		}
	}
	return total, nil
}

func writeTransactions(stdout io.Writer, path string, txns []*model.Transaction) error {
	data, err := json.MarshalIndent(txns, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}
	return nil
}
