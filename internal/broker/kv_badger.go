package broker

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type badgerEngine struct {
	db *badger.DB
}

func openBadgerEngine(dir string) (*badgerEngine, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = false // benchmark queue, durability is not the point
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger engine: %w", err)
	}
	return &badgerEngine{db: db}, nil
}

func (e *badgerEngine) Close() error {
	return e.db.Close()
}

func (e *badgerEngine) Put(key, value []byte) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (e *badgerEngine) Get(key []byte) ([]byte, error) {
	var out []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return ErrKeyNotFound
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (e *badgerEngine) Delete(key []byte) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (e *badgerEngine) First(prefix []byte) ([]byte, []byte, error) {
	var key, value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		it.Seek(prefix)
		if !it.Valid() || !bytes.HasPrefix(it.Item().Key(), prefix) {
			return ErrKeyNotFound
		}
		key = it.Item().KeyCopy(nil)
		var err error
		value, err = it.Item().ValueCopy(nil)
		return err
	})
	return key, value, err
}

func (e *badgerEngine) CountPrefix(prefix []byte) (int, error) {
	count := 0
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (e *badgerEngine) DeletePrefix(prefix []byte) error {
	return e.db.DropPrefix(prefix)
}
