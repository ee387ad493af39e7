package broker

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Engine lookups for missing keys.
var ErrKeyNotFound = errors.New("broker: key not found")

// Engine is the minimal ordered-KV surface the broker needs. Two
// implementations exist, badger and pebble, selected at open time.
type Engine interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error

	// First returns the smallest key carrying the prefix and its value.
	First(prefix []byte) (key, value []byte, err error)

	CountPrefix(prefix []byte) (int, error)
	DeletePrefix(prefix []byte) error

	Close() error
}

// OpenEngine opens the named KV engine rooted at dir.
func OpenEngine(name, dir string) (Engine, error) {
	switch name {
	case "", "badger":
		return openBadgerEngine(dir)
	case "pebble":
		return openPebbleEngine(dir)
	default:
		return nil, fmt.Errorf("unknown kv engine %q (expected badger or pebble)", name)
	}
}

// prefixUpperBound returns the smallest key greater than every key with
// the prefix, for exclusive-upper-bound iteration.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
