package fieldcrypt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const indexInfo = "payportal field blind index v1"

// Indexer computes deterministic keyed hashes of field values so equality
// lookups do not need to decrypt every stored envelope.
type Indexer struct {
	key []byte
}

// NewIndexer builds an Indexer from a dedicated 32-byte index key.
func NewIndexer(key []byte) (*Indexer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: index key must be %d bytes, got %d", ErrConfiguration, KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Indexer{key: k}, nil
}

// DeriveIndexKey derives an index key from the data key with HKDF-SHA256.
// The derived key is independent of the encryption key material.
func DeriveIndexKey(dataKey []byte) ([]byte, error) {
	if len(dataKey) != KeySize {
		return nil, fmt.Errorf("%w: data key must be %d bytes", ErrConfiguration, KeySize)
	}
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, dataKey, nil, []byte(indexInfo)), out); err != nil {
		return nil, fmt.Errorf("%w: derive index key: %v", ErrConfiguration, err)
	}
	return out, nil
}

// Index returns the hex HMAC-SHA256 of value scoped to field, so equal values
// in different columns do not share an index.
func (ix *Indexer) Index(field, value string) string {
	mac := hmac.New(sha256.New, ix.key)
	mac.Write([]byte(field))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
