// Package rawdb implements the narrow byte-keyed/byte-valued KV contract
// spec'd for the tree's three logical namespaces (headers, blocks, meta),
// plus typed accessors that apply the key schema below. It knows nothing
// about encoding — that is the codec layer's job.
package rawdb

import "encoding/binary"

// HeadKey is the meta-store sentinel holding the canonical head's hash:
// 32 bytes, all zero.
var HeadKey [32]byte

// DeletePointerKey is the meta-store sentinel holding the descendant hash
// an interrupted CleanInvalidBlocks run should resume from: 32 bytes, all
// ones.
var DeletePointerKey = func() [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = 0xFF
	}
	return k
}()

// levelKey encodes a level number as an 8-byte big-endian meta-store key,
// matching go-ethereum's own big-endian height-key convention.
func levelKey(number uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, number)
	return buf
}
