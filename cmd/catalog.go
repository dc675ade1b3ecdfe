package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/normalize"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and cache contract catalogs",
}

var catalogListFlags struct {
	contract string
	offline  bool
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a contract's billable line items and their keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		contract, err := parseContract(catalogListFlags.contract)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := loadCatalog(ctx, st, contract, catalogListFlags.offline)
		if err != nil {
			return err
		}

		norm := normalize.New(normalize.DefaultRewrites)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "PARTIDA\tDESCRIPTION\tUNIT\tUNIT PRICE\tKEYWORDS")
		for _, item := range items {
			kws := norm.Keywords(item.RawKeywords)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n",
				item.ID, item.Description, item.UnitOfMeasure, item.UnitPrice, len(kws))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d items\n", len(items))
		return nil
	},
}

var catalogRefreshFlags struct {
	contract string
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch a contract catalog and update the local cache",
	Long:  "Downloads the catalog from the API and stores it locally so analyze --offline works without network access.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("catalog"); err != nil {
			return err
		}
		contract, err := parseContract(catalogRefreshFlags.contract)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		items, err := newCatalogClient().Fetch(ctx, contract)
		if err != nil {
			return err
		}
		if err := st.SaveCatalog(ctx, contract, items); err != nil {
			return err
		}

		zap.L().Info("catalog cached",
			zap.String("contract", string(contract)),
			zap.Int("items", len(items)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Cached %d items for contract %s\n", len(items), contract)
		return nil
	},
}

func addContractFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "contract", "c", string(model.ContractA), "contract (a or b)")
}

func init() {
	addContractFlag(catalogListCmd, &catalogListFlags.contract)
	catalogListCmd.Flags().BoolVar(&catalogListFlags.offline, "offline", false, "read from the local cache")
	addContractFlag(catalogRefreshCmd, &catalogRefreshFlags.contract)

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
	rootCmd.AddCommand(catalogCmd)
}
