package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gallaway-jp/freedomtax/internal/util"
)

func TestNewCodec(t *testing.T) {
	t.Run("generates key file on first use", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "keys", "return.key")

		_, err := NewCodec(keyPath)
		require.NoError(t, err)

		info, err := os.Stat(keyPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		raw, err := os.ReadFile(keyPath)
		require.NoError(t, err)
		key, err := util.HexDecode(string(raw))
		require.NoError(t, err)
		assert.Len(t, key, util.AESKeySize)
	})

	t.Run("loads existing key file", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "return.key")

		c1, err := NewCodec(keyPath)
		require.NoError(t, err)
		ct, err := c1.Encrypt([]byte("secret"))
		require.NoError(t, err)

		// A second codec over the same file must decrypt the first's output.
		c2, err := NewCodec(keyPath)
		require.NoError(t, err)
		pt, err := c2.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, []byte("secret"), pt)
	})

	t.Run("rejects world-readable key file", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "return.key")
		_, err := NewCodec(keyPath)
		require.NoError(t, err)

		require.NoError(t, os.Chmod(keyPath, 0o644))
		_, err = NewCodec(keyPath)
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})

	t.Run("rejects corrupted key file", func(t *testing.T) {
		keyPath := filepath.Join(t.TempDir(), "return.key")
		require.NoError(t, os.WriteFile(keyPath, []byte("not a key"), 0o600))

		_, err := NewCodec(keyPath)
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})
}

func TestCodecEncryptDecrypt(t *testing.T) {
	codec, err := NewCodec(filepath.Join(t.TempDir(), "return.key"))
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		ct, err := codec.Encrypt([]byte(`{"data":{}}`))
		require.NoError(t, err)

		pt, err := codec.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"data":{}}`), pt)
	})

	t.Run("distinct ciphertexts for identical plaintext", func(t *testing.T) {
		a, err := codec.Encrypt([]byte("same"))
		require.NoError(t, err)
		b, err := codec.Encrypt([]byte("same"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		ct, err := codec.Encrypt([]byte("payload"))
		require.NoError(t, err)

		ct[len(ct)/2] ^= 0x01
		_, err = codec.Decrypt(ct)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("truncated ciphertext fails", func(t *testing.T) {
		_, err := codec.Decrypt([]byte{0x00})
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestPassphraseProtectedKeyFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "return.key")

	c1, err := NewCodec(keyPath, WithPassphrase("correct horse"))
	require.NoError(t, err)
	ct, err := c1.Encrypt([]byte("secret"))
	require.NoError(t, err)

	t.Run("reopens with correct passphrase", func(t *testing.T) {
		c2, err := NewCodec(keyPath, WithPassphrase("correct horse"))
		require.NoError(t, err)
		pt, err := c2.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, []byte("secret"), pt)
	})

	t.Run("wrong passphrase fails", func(t *testing.T) {
		_, err := NewCodec(keyPath, WithPassphrase("battery staple"))
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})

	t.Run("missing passphrase fails", func(t *testing.T) {
		_, err := NewCodec(keyPath)
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})
}

func TestGuard(t *testing.T) {
	codec, err := NewCodec(filepath.Join(t.TempDir(), "return.key"))
	require.NoError(t, err)
	guard, err := NewGuard(codec)
	require.NoError(t, err)

	t.Run("verify accepts valid MAC", func(t *testing.T) {
		data := []byte(`{"personal_info":{}}`)
		tag, err := guard.ComputeMAC(data)
		require.NoError(t, err)

		ok, err := guard.Verify(data, tag)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("verify rejects modified data", func(t *testing.T) {
		tag, err := guard.ComputeMAC([]byte("original"))
		require.NoError(t, err)

		ok, err := guard.Verify([]byte("modified"), tag)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("verify rejects modified tag", func(t *testing.T) {
		data := []byte("original")
		tag, err := guard.ComputeMAC(data)
		require.NoError(t, err)
		tag[0] ^= 0x01

		ok, err := guard.Verify(data, tag)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MAC key differs from encryption output", func(t *testing.T) {
		// Same file key, but domain separation must keep the spaces apart:
		// two guards derive identical tags, and the tag is stable per input.
		guard2, err := NewGuard(codec)
		require.NoError(t, err)

		a, err := guard.ComputeMAC([]byte("data"))
		require.NoError(t, err)
		b, err := guard2.ComputeMAC([]byte("data"))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
