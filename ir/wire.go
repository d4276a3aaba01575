package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is the canonical CBOR encoding mode, so equal units always
// encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ir: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalCBOR serializes v to canonical CBOR bytes.
func MarshalCBOR(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalUnit deserializes a Unit from CBOR bytes.
func UnmarshalUnit(data []byte) (*Unit, error) {
	var u Unit
	if err := cbor.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("ir: unmarshal unit: %w", err)
	}
	return &u, nil
}

// Fingerprint returns a short stable digest of v's canonical CBOR encoding.
func Fingerprint(v any) (string, error) {
	data, err := MarshalCBOR(v)
	if err != nil {
		return "", fmt.Errorf("ir: fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}
