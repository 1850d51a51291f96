package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gallaway-jp/freedomtax/internal/util"
)

const (
	keyFilePerm = 0o600
	keyDirPerm  = 0o700

	wrappedKeyVersion = 2
)

// wrappedKeyFile is the on-disk form of a passphrase-protected key file.
// The raw key is sealed with AES-256-GCM under an Argon2id-derived wrapping
// key.
type wrappedKeyFile struct {
	Ver        int                `json:"ver"`
	KDF        util.Argon2idParams `json:"kdf"`
	Salt       []byte             `json:"salt"`
	WrappedKey []byte             `json:"wrapped_key"`
}

// loadOrCreateKey resolves the process key: an existing file is loaded (and
// unwrapped if passphrase-protected), otherwise a fresh random key is
// generated and persisted with owner-only permissions.
func loadOrCreateKey(path, passphrase string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := checkKeyFileMode(path); err != nil {
			return nil, err
		}
		return parseKeyFile(raw, passphrase)
	case os.IsNotExist(err):
		return generateKeyFile(path, passphrase)
	default:
		return nil, fmt.Errorf("%w: reading key file: %v", ErrKeyUnavailable, err)
	}
}

// checkKeyFileMode refuses group- or world-accessible key files.
func checkKeyFileMode(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat key file: %v", ErrKeyUnavailable, err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return fmt.Errorf("%w: key file permissions %04o are too open, want %04o",
			ErrKeyUnavailable, info.Mode().Perm(), keyFilePerm)
	}
	return nil
}

func parseKeyFile(raw []byte, passphrase string) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)

	// Passphrase-protected files carry a JSON header.
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return unwrapKey(trimmed, passphrase)
	}

	// v1 format: 64 hex characters or 32 raw bytes.
	if len(trimmed) == 2*util.AESKeySize {
		key, err := util.HexDecode(string(trimmed))
		if err == nil {
			return key, nil
		}
	}
	if len(raw) == util.AESKeySize {
		return util.CopyBytes(raw), nil
	}

	return nil, fmt.Errorf("%w: key file is not a valid key", ErrKeyUnavailable)
}

func unwrapKey(raw []byte, passphrase string) ([]byte, error) {
	var wk wrappedKeyFile
	if err := json.Unmarshal(raw, &wk); err != nil {
		return nil, fmt.Errorf("%w: parsing wrapped key file: %v", ErrKeyUnavailable, err)
	}
	if wk.Ver != wrappedKeyVersion {
		return nil, fmt.Errorf("%w: unsupported key file version %d", ErrKeyUnavailable, wk.Ver)
	}
	if passphrase == "" {
		return nil, fmt.Errorf("%w: key file requires a passphrase", ErrKeyUnavailable)
	}

	wrappingKey, err := util.DeriveArgon2idKey(passphrase, wk.Salt, wk.KDF)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving wrapping key: %v", ErrKeyUnavailable, err)
	}
	defer util.WipeBytes(wrappingKey)

	key, err := util.OpenAESGCM(wk.WrappedKey, wrappingKey, []byte("freedomtax:keyfile:v2"))
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupted key file", ErrKeyUnavailable)
	}
	if len(key) != util.AESKeySize {
		util.WipeBytes(key)
		return nil, fmt.Errorf("%w: wrapped key has invalid size", ErrKeyUnavailable)
	}
	return key, nil
}

// generateKeyFile creates a new random key and persists it. With a
// passphrase it writes the wrapped v2 format, otherwise hex-encoded v1.
func generateKeyFile(path, passphrase string) ([]byte, error) {
	key, err := util.RandomBytes(util.AESKeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: generating key: %v", ErrKeyUnavailable, err)
	}

	var contents []byte
	if passphrase == "" {
		contents = []byte(util.HexEncode(key))
	} else {
		contents, err = wrapKey(key, passphrase)
		if err != nil {
			util.WipeBytes(key)
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), keyDirPerm); err != nil {
		util.WipeBytes(key)
		return nil, fmt.Errorf("%w: creating key directory: %v", ErrKeyUnavailable, err)
	}
	if err := util.WriteFileAtomic(path, contents, keyFilePerm); err != nil {
		util.WipeBytes(key)
		return nil, fmt.Errorf("%w: writing key file: %v", ErrKeyUnavailable, err)
	}
	return key, nil
}

func wrapKey(key []byte, passphrase string) ([]byte, error) {
	salt, err := util.RandomBytes(16)
	if err != nil {
		return nil, fmt.Errorf("%w: generating salt: %v", ErrKeyUnavailable, err)
	}
	params := util.DefaultArgon2idParams()

	wrappingKey, err := util.DeriveArgon2idKey(passphrase, salt, params)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving wrapping key: %v", ErrKeyUnavailable, err)
	}
	defer util.WipeBytes(wrappingKey)

	wrapped, err := util.SealAESGCM(key, wrappingKey, []byte("freedomtax:keyfile:v2"))
	if err != nil {
		return nil, fmt.Errorf("%w: wrapping key: %v", ErrKeyUnavailable, err)
	}

	return json.Marshal(wrappedKeyFile{
		Ver:        wrappedKeyVersion,
		KDF:        params,
		Salt:       salt,
		WrappedKey: wrapped,
	})
}
