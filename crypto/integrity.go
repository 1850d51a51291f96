package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/awnumar/memguard"
)

const macKeyInfo = "freedomtax:return-mac:v1"

// Guard computes and verifies HMAC-SHA256 tags over serialized return data.
// Its key is derived from the codec's file key with domain separation, so
// the integrity check stays meaningful even when layered over the codec's
// own authenticated encryption: it catches application-level corruption
// (partial serialization, envelope migration bugs) that re-wrapping the
// ciphertext would not.
type Guard struct {
	key *memguard.Enclave
}

// NewGuard derives the MAC key from the codec and returns a ready Guard.
func NewGuard(codec *Codec) (*Guard, error) {
	macKey, err := codec.deriveSubkey(macKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving MAC key: %w", err)
	}
	// NewEnclave wipes macKey after sealing it.
	return &Guard{key: memguard.NewEnclave(macKey)}, nil
}

// ComputeMAC returns the HMAC-SHA256 tag over data.
func (g *Guard) ComputeMAC(data []byte) ([]byte, error) {
	buf, err := g.key.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening MAC key enclave: %v", ErrKeyUnavailable, err)
	}
	defer buf.Destroy()

	mac := hmac.New(sha256.New, buf.Bytes())
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Verify reports whether tag is the valid MAC for data, in constant time.
func (g *Guard) Verify(data, tag []byte) (bool, error) {
	expected, err := g.ComputeMAC(data)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, tag), nil
}
