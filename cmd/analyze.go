package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/igrtec/partida-cli/internal/export"
	"github.com/igrtec/partida-cli/internal/fetcher"
	"github.com/igrtec/partida-cli/internal/match"
	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/normalize"
)

var analyzeFlags struct {
	input        string
	contract     string
	contractFile string
	sheet        string
	column       string
	threshold    int
	workers      int
	format       string
	output       string
	save         bool
	offline      bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match a workbook's comments against a contract catalog",
	Long: `Reads the comments column of a daily-report workbook (local path,
https:// or ftp:// URL), fetches the contract's catalog of billable line
items, and reports every item whose keywords appear in the comments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		contract, err := parseContract(analyzeFlags.contract)
		if err != nil {
			return err
		}
		format, ok := export.ParseFormat(analyzeFlags.format)
		if !ok {
			return eris.Errorf("unknown format %q (want table, csv or xlsx)", analyzeFlags.format)
		}
		if format == export.FormatXLSX && analyzeFlags.output == "" {
			return eris.New("--output is required with --format xlsx")
		}

		info, err := loadContractInfo(analyzeFlags.contractFile)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := loadCatalog(ctx, st, contract, analyzeFlags.offline)
		if err != nil {
			return err
		}

		path, cleanup, err := newResolver().Resolve(ctx, analyzeFlags.input)
		if err != nil {
			return err
		}
		defer cleanup()

		comments, err := fetcher.ReadComments(path, fetcher.XLSXOptions{
			SheetName:      analyzeFlags.sheet,
			CommentsColumn: analyzeFlags.column,
		})
		if err != nil {
			return err
		}

		matchCfg := cfg.Match
		if analyzeFlags.threshold > 0 {
			matchCfg.Threshold = analyzeFlags.threshold
		}
		if analyzeFlags.workers > 0 {
			matchCfg.Workers = analyzeFlags.workers
		}

		start := time.Now()
		matcher := match.New(normalize.New(normalize.DefaultRewrites), matchCfg)
		detections, err := matcher.Run(ctx, items, comments, info)
		if err != nil {
			return err
		}

		run := &model.Run{
			ID:           uuid.NewString(),
			Contract:     contract,
			Info:         info,
			Detections:   detections,
			CommentCount: len(comments),
			ItemCount:    len(items),
			CreatedAt:    time.Now().UTC(),
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", run.ID),
			zap.String("contract", string(contract)),
			zap.Int("comments", len(comments)),
			zap.Int("items", len(items)),
			zap.Int("detections", len(detections)),
			zap.Duration("took", time.Since(start)),
		)

		if analyzeFlags.save {
			if err := st.SaveRun(ctx, run); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved run %s\n", run.ID)
		}

		if len(detections) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No catalog items matched the comments.")
			return nil
		}

		return renderRun(cmd, run, format, analyzeFlags.output)
	},
}

// loadContractInfo reads the optional well/equipment parameter file.
func loadContractInfo(path string) (model.ContractInfo, error) {
	var info model.ContractInfo
	if path == "" {
		return info, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return info, eris.Wrapf(err, "read contract file %s", path)
	}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return info, eris.Wrapf(err, "parse contract file %s", path)
	}
	return info, nil
}

// renderRun writes a run in the requested format, to a file when output is
// set and stdout otherwise.
func renderRun(cmd *cobra.Command, run *model.Run, format export.Format, output string) error {
	switch format {
	case export.FormatXLSX:
		if err := export.WriteXLSX(output, run); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	case export.FormatCSV:
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "create %s", output)
			}
			defer f.Close()
			return export.WriteCSV(f, run)
		}
		return export.WriteCSV(cmd.OutOrStdout(), run)
	default:
		return export.WriteTable(cmd.OutOrStdout(), run)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFlags.input, "input", "i", "", "workbook path or URL (required)")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.contract, "contract", "c", "a", "contract catalog to match against (a or b)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.contractFile, "contract-file", "", "YAML file with well and equipment parameters")
	analyzeCmd.Flags().StringVar(&analyzeFlags.sheet, "sheet", "", "sheet name (default first sheet)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.column, "column", "", `comments column header (default "comments")`)
	analyzeCmd.Flags().IntVar(&analyzeFlags.threshold, "threshold", 0, "fuzzy acceptance threshold 1-100 (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeFlags.workers, "workers", 0, "parallel comment workers (default NumCPU)")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.format, "format", "f", "table", "output format: table, csv or xlsx")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.output, "output", "o", "", "output file (stdout for table/csv if empty)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.save, "save", false, "persist the run to the history store")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.offline, "offline", false, "use the cached catalog instead of the API")
	_ = analyzeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(analyzeCmd)
}
