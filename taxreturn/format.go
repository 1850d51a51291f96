package taxreturn

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gallaway-jp/freedomtax/crypto"
	"github.com/gallaway-jp/freedomtax/internal/util"
)

// envelope is the plaintext-before-encryption structure of the current
// format: the serialized return plus its MAC, encrypted as a single unit.
type envelope struct {
	Data json.RawMessage `json:"data"`
	MAC  string          `json:"mac"`
}

// formatStrategy attempts to interpret raw file bytes as one on-disk format.
type formatStrategy interface {
	name() string
	load(raw []byte) (*TaxReturn, error)
}

// resolver tries an ordered list of format strategies, newest first.
// Supporting a new on-disk format means prepending a strategy, never
// modifying an existing one.
type resolver struct {
	strategies []formatStrategy
}

func newResolver(codec *crypto.Codec, guard *crypto.Guard) *resolver {
	return &resolver{
		strategies: []formatStrategy{
			&encryptedWithMAC{codec: codec, guard: guard},
			&encryptedLegacy{codec: codec},
			&plaintextLegacy{},
		},
	}
}

// load tries each strategy in order and returns the first success. A MAC
// mismatch on a payload that decrypted correctly is a hard integrity error
// and stops the chain; only decryption and parse failures fall through.
// When every strategy fails the result is a LoadError naming each attempt.
func (r *resolver) load(raw []byte) (*TaxReturn, error) {
	loadErr := &LoadError{}
	for _, s := range r.strategies {
		ret, err := s.load(raw)
		if err == nil {
			return ret, nil
		}
		if errors.Is(err, crypto.ErrIntegrityViolation) {
			return nil, err
		}
		loadErr.Attempts = append(loadErr.Attempts, FormatAttempt{Format: s.name(), Err: err})
	}
	return nil, loadErr
}

// encryptedWithMAC is the current format: an encrypted {data, mac} envelope
// whose MAC is verified over the exact serialized data bytes.
type encryptedWithMAC struct {
	codec *crypto.Codec
	guard *crypto.Guard
}

func (s *encryptedWithMAC) name() string { return "encrypted+mac" }

func (s *encryptedWithMAC) load(raw []byte) (*TaxReturn, error) {
	plaintext, err := s.codec.Decrypt(raw)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(plaintext)

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}
	if env.MAC == "" || len(env.Data) == 0 {
		return nil, fmt.Errorf("payload has no MAC envelope")
	}

	tag, err := util.HexDecode(env.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed MAC encoding", crypto.ErrIntegrityViolation)
	}
	ok, err := s.guard.Verify(env.Data, tag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: MAC mismatch on decrypted envelope", crypto.ErrIntegrityViolation)
	}

	return unmarshalReturn(env.Data)
}

// encryptedLegacy handles files written before integrity checking existed:
// the whole decrypted payload is the serialized return.
type encryptedLegacy struct {
	codec *crypto.Codec
}

func (s *encryptedLegacy) name() string { return "encrypted-legacy" }

func (s *encryptedLegacy) load(raw []byte) (*TaxReturn, error) {
	plaintext, err := s.codec.Decrypt(raw)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(plaintext)

	return unmarshalReturn(plaintext)
}

// plaintextLegacy handles pre-encryption-era files stored as bare JSON.
type plaintextLegacy struct{}

func (s *plaintextLegacy) name() string { return "plaintext-legacy" }

func (s *plaintextLegacy) load(raw []byte) (*TaxReturn, error) {
	return unmarshalReturn(raw)
}

func unmarshalReturn(data []byte) (*TaxReturn, error) {
	var ret TaxReturn
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("parsing return data: %w", err)
	}
	// Every persisted return carries its tax year; arbitrary JSON that
	// happens to parse is not a return.
	if ret.Metadata.TaxYear == 0 {
		return nil, fmt.Errorf("payload is not a tax return: missing metadata.tax_year")
	}
	return &ret, nil
}
