package core

import (
	"crypto/sha256"

	"github.com/krehermann/gostackvm/types"
)

type Hasher[T any] interface {
	Hash(T) types.Hash
}

// ProgramHasher hashes the canonical binary encoding of a program. Decoding
// then re-encoding a valid program reproduces its bytes, so equal programs
// get equal hashes however they were submitted.
type ProgramHasher struct{}

func (ProgramHasher) Hash(encoded []byte) types.Hash {
	return types.Hash(sha256.Sum256(encoded))
}
