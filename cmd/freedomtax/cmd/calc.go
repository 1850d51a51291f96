package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gallaway-jp/freedomtax/calc"
	"github.com/gallaway-jp/freedomtax/internal/config"
)

var calcFile string

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute tax totals for a saved return",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := newLogger(cfg)

		store, err := openStore(cfg, 0, log)
		if err != nil {
			return err
		}
		if err := store.Load(cmd.Context(), calcFile); err != nil {
			return fmt.Errorf("loading return: %w", err)
		}

		ret := store.Return()
		table, err := calc.DefaultTables().ForYear(ret.Metadata.TaxYear)
		if err != nil {
			return err
		}
		result, err := calc.NewEngine().Calculate(ret, table)
		if err != nil {
			return err
		}

		fmt.Printf("Tax year:              %d\n", ret.Metadata.TaxYear)
		fmt.Printf("Total income:          %s\n", result.TotalIncome.StringFixed(2))
		fmt.Printf("Adjusted gross income: %s\n", result.AdjustedGrossIncome.StringFixed(2))
		fmt.Printf("Deduction:             %s\n", result.DeductionAmount.StringFixed(2))
		fmt.Printf("Taxable income:        %s\n", result.TaxableIncome.StringFixed(2))
		fmt.Printf("Income tax:            %s\n", result.IncomeTax.StringFixed(2))
		fmt.Printf("Credits:               %s\n", result.TotalCredits.StringFixed(2))
		fmt.Printf("Tax after credits:     %s\n", result.TaxAfterCredits.StringFixed(2))
		fmt.Printf("Payments:              %s\n", result.TotalPayments.StringFixed(2))
		if result.RefundOrOwed.IsNegative() {
			fmt.Printf("Amount owed:           %s\n", result.RefundOrOwed.Neg().StringFixed(2))
		} else {
			fmt.Printf("Refund:                %s\n", result.RefundOrOwed.StringFixed(2))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
	calcCmd.Flags().StringVar(&calcFile, "file", "return.dat", "Return file name inside the data directory")
}
