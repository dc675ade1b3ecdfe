package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/igrtec/partida-cli/internal/export"
	"github.com/igrtec/partida-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved analysis runs",
}

var runsListFlags struct {
	contract string
	limit    int
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.RunFilter{Limit: runsListFlags.limit}
		if runsListFlags.contract != "" {
			contract, err := parseContract(runsListFlags.contract)
			if err != nil {
				return err
			}
			filter.Contract = contract
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved runs.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tCONTRACT\tCOMMENTS\tITEMS\tDETECTIONS\tCREATED")
		for _, r := range runs {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.Contract, r.CommentCount, r.ItemCount,
				r.DetectionCount(), r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var runsShowFlags struct {
	format string
	output string
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's detections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, ok := export.ParseFormat(runsShowFlags.format)
		if !ok {
			return eris.Errorf("unknown format %q (want table, csv or xlsx)", runsShowFlags.format)
		}
		if format == export.FormatXLSX && runsShowFlags.output == "" {
			return eris.New("--output is required with --format xlsx")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		return renderRun(cmd, run, format, runsShowFlags.output)
	},
}

func init() {
	runsListCmd.Flags().StringVarP(&runsListFlags.contract, "contract", "c", "", "filter by contract (a or b)")
	runsListCmd.Flags().IntVar(&runsListFlags.limit, "limit", 20, "maximum runs to list")
	runsShowCmd.Flags().StringVarP(&runsShowFlags.format, "format", "f", "table", "output format: table, csv or xlsx")
	runsShowCmd.Flags().StringVarP(&runsShowFlags.output, "output", "o", "", "output file")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
