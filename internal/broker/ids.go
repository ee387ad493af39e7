package broker

import (
	"encoding/hex"
	"sync/atomic"
	"time"
)

var idSeq uint64

// NewID generates a lexicographically sortable identifier so that key
// order in the KV engine matches enqueue order. Layout (hex): 16 chars of
// nanosecond timestamp plus 10 chars of process-local sequence.
func NewID() string {
	ns := uint64(time.Now().UnixNano())
	seq := atomic.AddUint64(&idSeq, 1)
	var raw [13]byte
	for i := 0; i < 8; i++ {
		raw[i] = byte(ns >> (56 - 8*i))
	}
	for i := 0; i < 5; i++ {
		raw[8+i] = byte(seq >> (32 - 8*i))
	}
	dst := make([]byte, 26)
	hex.Encode(dst, raw[:])
	return "unit_" + string(dst)
}
