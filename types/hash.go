package types

import (
	"encoding/hex"
	"fmt"
)

const HashByteLen = 32

// Hash identifies a stored program: the sha256 of its canonical encoding.
type Hash [HashByteLen]uint8

func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashByteLen {
		return h, fmt.Errorf("hash must be %d bytes, got %d", HashByteLen, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("hash from hex %q: %w", s, err)
	}
	return HashFromBytes(b)
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) ToSlice() []byte {
	out := make([]byte, HashByteLen)
	copy(out, h[:])
	return out
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Prefix is a short form for logs.
func (h Hash) Prefix() string {
	return h.String()[:8]
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
