package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gallaway-jp/freedomtax/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "freedomtax",
	Short: "FreedomTax prepares personal federal tax returns",
	Long: `FreedomTax stores your tax return data encrypted on your own machine and
computes your federal income tax, credits, and refund or amount owed.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger from the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
