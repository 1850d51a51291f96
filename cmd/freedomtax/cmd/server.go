package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/gallaway-jp/freedomtax/api"
	"github.com/gallaway-jp/freedomtax/audit"
	"github.com/gallaway-jp/freedomtax/calc"
	"github.com/gallaway-jp/freedomtax/internal/config"
)

var serverTaxYear int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the local tax return API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := newLogger(cfg)

		store, err := openStore(cfg, serverTaxYear, log)
		if err != nil {
			return err
		}

		auditStore, err := audit.Open(cfg.AuditDBPath)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer auditStore.Close()

		a := api.New(store, calc.DefaultTables(),
			api.WithLogger(log),
			api.WithAudit(auditStore),
		)

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		log.Info("server started",
			"addr", server.Addr,
			"data_dir", cfg.DataDir,
			"tax_year", serverTaxYear,
		)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			log.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVar(&serverTaxYear, "year", 2025, "Tax year of the return being prepared")
}
