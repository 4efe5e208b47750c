package prove

import (
	"encoding/binary"
	"encoding/hex"

	"hdcmind/internal/bitvector"
)

// vectorKey derives a visited-set key from a goal vector's leading
// words -- enough entropy to tell goals apart without hashing the whole
// vector on every recursive entry.
func vectorKey(v bitvector.BitVector) string {
	words := v.Words()
	n := len(words)
	if n > 4 {
		n = 4
	}
	buf := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], words[i])
	}
	return "v:" + hex.EncodeToString(buf)
}

// transitiveKey derives a visited-set key for a transitive sub-step from
// its structural triple, so a cycle in the transitive graph is caught by
// identity rather than by vector similarity drift.
func transitiveKey(op, from, to string) string {
	return "t:" + op + ":" + from + ":" + to
}
