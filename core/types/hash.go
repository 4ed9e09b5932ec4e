package types

import "golang.org/x/crypto/sha3"

// HashBytes returns the Keccak-256 digest of data as a Hash, the same
// content-addressing primitive go-ethereum-lineage headers use to
// self-address. The tree itself never calls this — callers hash their
// own headers before handing them to Suggest* — but it is the natural
// building block for deterministic test fixtures and is exported for
// that purpose.
func HashBytes(data []byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var h Hash
	hasher.Sum(h[:0])
	return h
}
