package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gallaway-jp/freedomtax/audit"
	"github.com/gallaway-jp/freedomtax/internal/config"
)

var (
	newTaxYear int
	newFile    string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create and save an empty tax return",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := newLogger(cfg)

		store, err := openStore(cfg, newTaxYear, log)
		if err != nil {
			return err
		}

		if _, err := store.Save(cmd.Context(), newFile); err != nil {
			return fmt.Errorf("saving new return: %w", err)
		}

		auditStore, err := audit.Open(cfg.AuditDBPath)
		if err != nil {
			log.Warn("audit log unavailable", "error", err)
		} else {
			defer auditStore.Close()
			if err := auditStore.Append(store.Return().Metadata.ReturnID, audit.ActionReturnCreated, newFile); err != nil {
				log.Warn("audit append failed", "error", err)
			}
		}

		fmt.Printf("Created %s (tax year %d) in %s\n", newFile, newTaxYear, cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().IntVar(&newTaxYear, "year", 2025, "Tax year for the new return")
	newCmd.Flags().StringVar(&newFile, "file", "return.dat", "File name inside the data directory")
}
