package crypto

import "errors"

var (
	// ErrKeyUnavailable indicates the key file could not be loaded, created,
	// or unwrapped.
	ErrKeyUnavailable = errors.New("encryption key unavailable")
	// ErrDecryptionFailed indicates a ciphertext failed authentication or
	// could not be decrypted.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrIntegrityViolation indicates a payload decrypted correctly but its
	// MAC did not match.
	ErrIntegrityViolation = errors.New("integrity check failed")
)
