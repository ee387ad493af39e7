package broker

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

type pebbleEngine struct {
	db *pebble.DB
}

func openPebbleEngine(dir string) (*pebbleEngine, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		MemTableSize:          16 << 20,
		L0CompactionThreshold: 8,
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble engine: %w", err)
	}
	return &pebbleEngine{db: db}, nil
}

func (e *pebbleEngine) Close() error {
	return e.db.Close()
}

func (e *pebbleEngine) Put(key, value []byte) error {
	return e.db.Set(key, value, pebble.NoSync)
}

func (e *pebbleEngine) Get(key []byte) ([]byte, error) {
	v, closer, err := e.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	closer.Close()
	return out, nil
}

func (e *pebbleEngine) Delete(key []byte) error {
	return e.db.Delete(key, pebble.NoSync)
}

func (e *pebbleEngine) First(prefix []byte) ([]byte, []byte, error) {
	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = iter.Close() }()
	if !iter.First() {
		if err := iter.Error(); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrKeyNotFound
	}
	key := append([]byte(nil), iter.Key()...)
	value := append([]byte(nil), iter.Value()...)
	return key, value, nil
}

func (e *pebbleEngine) CountPrefix(prefix []byte) (int, error) {
	iter, err := e.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = iter.Close() }()
	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	return count, iter.Error()
}

func (e *pebbleEngine) DeletePrefix(prefix []byte) error {
	return e.db.DeleteRange(prefix, prefixUpperBound(prefix), pebble.NoSync)
}
