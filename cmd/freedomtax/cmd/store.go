package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gallaway-jp/freedomtax/crypto"
	"github.com/gallaway-jp/freedomtax/internal/config"
	"github.com/gallaway-jp/freedomtax/storage"
	"github.com/gallaway-jp/freedomtax/taxreturn"
)

// openStore wires the codec, integrity guard, and path guard for the
// configured data directory. The key file is created on first use. A
// passphrase-protected key file is unlocked via FT_KEY_PASSPHRASE.
func openStore(cfg *config.Config, taxYear int, log *slog.Logger) (*taxreturn.Store, error) {
	var copts []crypto.CodecOption
	if pass := os.Getenv("FT_KEY_PASSPHRASE"); pass != "" {
		copts = append(copts, crypto.WithPassphrase(pass))
	}
	codec, err := crypto.NewCodec(cfg.KeyPath, copts...)
	if err != nil {
		return nil, fmt.Errorf("opening encryption key: %w", err)
	}
	guard, err := crypto.NewGuard(codec)
	if err != nil {
		return nil, fmt.Errorf("deriving integrity key: %w", err)
	}
	paths, err := storage.NewPathGuard(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("preparing data directory: %w", err)
	}
	return taxreturn.NewStore(taxYear, codec, guard, paths, taxreturn.WithLogger(log)), nil
}
