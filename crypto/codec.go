// Package crypto provides the authenticated-encryption codec and the keyed
// integrity guard used to persist tax returns at rest.
package crypto

import (
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/gallaway-jp/freedomtax/internal/util"
)

// CodecOption configures a Codec.
type CodecOption func(*codecOptions)

type codecOptions struct {
	passphrase string
}

// WithPassphrase supplies the passphrase for a passphrase-protected key
// file. A passphrase given at first use also selects the protected format
// for a newly generated key file.
func WithPassphrase(passphrase string) CodecOption {
	return func(o *codecOptions) {
		o.passphrase = passphrase
	}
}

// Codec performs AES-256-GCM encryption with a key loaded once from a key
// file. The key lives in a memguard enclave between operations; Codec is
// stateless after construction and safe for concurrent use.
type Codec struct {
	key *memguard.Enclave
}

// NewCodec resolves the key at keyPath (generating it on first use) and
// returns a ready Codec. Key resolution failures surface as
// ErrKeyUnavailable.
func NewCodec(keyPath string, opts ...CodecOption) (*Codec, error) {
	var options codecOptions
	for _, opt := range opts {
		opt(&options)
	}

	raw, err := loadOrCreateKey(keyPath, options.passphrase)
	if err != nil {
		return nil, err
	}

	// NewEnclave wipes raw after sealing it.
	return &Codec{key: memguard.NewEnclave(raw)}, nil
}

// Encrypt seals plaintext with AES-256-GCM. Each call uses a fresh nonce,
// so identical plaintexts produce distinct ciphertexts.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening key enclave: %v", ErrKeyUnavailable, err)
	}
	defer buf.Destroy()

	return util.SealAESGCM(plaintext, buf.Bytes(), nil)
}

// Decrypt opens a ciphertext produced by Encrypt. Tampered or truncated
// input fails with ErrDecryptionFailed rather than returning garbage.
func (c *Codec) Decrypt(ciphertext []byte) ([]byte, error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening key enclave: %v", ErrKeyUnavailable, err)
	}
	defer buf.Destroy()

	plaintext, err := util.OpenAESGCM(ciphertext, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// deriveSubkey derives a domain-separated subkey from the file key.
func (c *Codec) deriveSubkey(info string) ([]byte, error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening key enclave: %v", ErrKeyUnavailable, err)
	}
	defer buf.Destroy()

	return util.HKDF(buf.Bytes(), nil, []byte(info))
}
