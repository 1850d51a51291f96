package taxreturn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gallaway-jp/freedomtax/crypto"
	"github.com/gallaway-jp/freedomtax/internal/util"
	"github.com/gallaway-jp/freedomtax/storage"
)

const returnFilePerm = 0o600

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// Store holds the in-memory tax return and orchestrates validated mutation
// and encrypted, integrity-checked persistence. The mutex guards the tree:
// mutators and saves/loads take the write lock, readers the read lock, so a
// save always marshals a consistent tree and two writes to the same file
// never interleave.
type Store struct {
	mu       sync.RWMutex
	ret      *TaxReturn
	codec    *crypto.Codec
	guard    *crypto.Guard
	paths    *storage.PathGuard
	resolver *resolver
	log      *slog.Logger
}

// NewStore creates a store holding an empty return for the given tax year.
func NewStore(taxYear int, codec *crypto.Codec, guard *crypto.Guard, paths *storage.PathGuard, opts ...StoreOption) *Store {
	s := &Store{
		ret:      NewTaxReturn(taxYear),
		codec:    codec,
		guard:    guard,
		paths:    paths,
		resolver: newResolver(codec, guard),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Return exposes a snapshot of the current return for read-only consumers
// (the calculation engine, the UI layer). Concurrent mutations never show
// through the snapshot.
func (s *Store) Return() *TaxReturn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ret.clone()
}

// Get returns the value at path, or false if the path does not resolve.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ret.Get(path)
}

// GetDefault returns the value at path, or def if the path does not resolve.
func (s *Store) GetDefault(path string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ret.GetDefault(path, def)
}

// Set validates raw and writes the normalized value at path. On any
// validation failure the tree is untouched and the error wraps
// ErrValidation with the field and reason.
func (s *Store) Set(path string, raw any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	if isReadOnlyPath(segs) {
		return fieldErrorf(path, ReasonReadOnly, "calculated totals and metadata are not settable")
	}

	target, err := resolve(reflect.ValueOf(s.ret).Elem(), segs)
	if err != nil {
		return err
	}
	if target.Kind() == reflect.Slice {
		return fieldErrorf(path, ReasonInvalidFormat, "path addresses a list; use AppendToList")
	}
	if target.Kind() == reflect.Struct && target.Type() != reflect.TypeOf(decimal.Decimal{}) {
		return fieldErrorf(path, ReasonInvalidFormat, "path addresses a section, not a field")
	}

	leaf := segs[len(segs)-1]
	normalized, err := validateField(path, leaf.name, target, raw)
	if err != nil {
		return err
	}
	if err := assignLeaf(target, normalized, path); err != nil {
		return err
	}
	s.ret.Metadata.LastModifiedAt = time.Now().UTC()
	return nil
}

// AppendToList validates record and appends it to the list at path. The
// whole record is accepted or rejected; a failing field leaves the list
// unchanged.
func (s *Store) AppendToList(path string, record map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	if isReadOnlyPath(segs) {
		return fieldErrorf(path, ReasonReadOnly, "calculated totals and metadata are not settable")
	}

	list, err := resolve(reflect.ValueOf(s.ret).Elem(), segs)
	if err != nil {
		return err
	}
	if list.Kind() != reflect.Slice {
		return fieldErrorf(path, ReasonInvalidFormat, "path does not address a list")
	}

	elem := reflect.New(list.Type().Elem()).Elem()
	elemPath := fmt.Sprintf("%s[%d]", path, list.Len())

	// Deterministic order keeps the first error stable.
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := fieldByTag(elem, key)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownPath, elemPath, key)
		}
		fieldPath := elemPath + "." + key
		normalized, err := validateField(fieldPath, key, field, record[key])
		if err != nil {
			return err
		}
		if err := assignLeaf(field, normalized, fieldPath); err != nil {
			return err
		}
	}

	list.Set(reflect.Append(list, elem))
	s.ret.Metadata.LastModifiedAt = time.Now().UTC()
	return nil
}

// Save serializes, MACs, encrypts, and atomically writes the return under
// name inside the safe directory, returning the resolved path. A partial
// write is never visible at the final path. Saves are serialized; a cancel
// via ctx is honored only before the write begins.
func (s *Store) Save(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.paths.Resolve(name)
	if err != nil {
		return "", err
	}

	s.ret.Metadata.LastModifiedAt = time.Now().UTC()

	data, err := json.Marshal(s.ret)
	if err != nil {
		return "", fmt.Errorf("serializing return: %w", err)
	}
	defer util.WipeBytes(data)

	tag, err := s.guard.ComputeMAC(data)
	if err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(envelope{Data: data, MAC: util.HexEncode(tag)})
	if err != nil {
		return "", fmt.Errorf("serializing envelope: %w", err)
	}
	defer util.WipeBytes(plaintext)

	ciphertext, err := s.codec.Encrypt(plaintext)
	if err != nil {
		return "", err
	}

	if err := util.WriteFileAtomic(path, ciphertext, returnFilePerm); err != nil {
		return "", fmt.Errorf("writing return file: %w", err)
	}
	if err := os.Chmod(path, returnFilePerm); err != nil {
		return "", fmt.Errorf("setting return file permissions: %w", err)
	}

	s.log.Info("return saved", "file", name, "format_version", FormatVersion)
	return path, nil
}

// Load reads and decodes the named return file through the format chain and
// replaces the in-memory tree. On any failure the in-memory tree is left
// unchanged.
func (s *Store) Load(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.paths.Resolve(name)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading return file: %w", err)
	}

	ret, err := s.resolver.load(raw)
	if err != nil {
		return err
	}

	ret.Metadata.LastModifiedAt = time.Now().UTC()
	s.ret = ret
	s.log.Info("return loaded", "file", name, "tax_year", ret.Metadata.TaxYear)
	return nil
}

// isReadOnlyPath reports whether segs address state callers may not write:
// metadata is stamped by the store, and calculated totals are never stored.
func isReadOnlyPath(segs []segment) bool {
	switch segs[0].name {
	case "metadata", "calculated":
		return true
	}
	return false
}
