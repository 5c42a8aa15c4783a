package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB v4.
type Badger struct {
	db   *badger.DB
	opts *Options
}

// BadgerOptions configures NewBadger.
type BadgerOptions struct {
	// Options controls key encoding. May be nil.
	Options *Options

	// Dir holds the database files. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in RAM; nothing is written to Dir.
	InMemory bool

	// Logger receives badger's own log lines. Nil routes warnings and
	// errors to slog and drops the rest.
	Logger badger.Logger
}

// NewBadger opens (or creates) a BadgerDB store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if bopts.Dir == "" && !bopts.InMemory {
		return nil, errors.New("kv: badger needs a directory or InMemory")
	}
	opts := badger.DefaultOptions(bopts.Dir).WithInMemory(bopts.InMemory)
	if bopts.Logger != nil {
		opts = opts.WithLogger(bopts.Logger)
	} else {
		opts = opts.WithLogger(slogLogger{})
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger: %w", err)
	}
	return &Badger{db: db, opts: bopts.Options}, nil
}

func (b *Badger) Get(_ context.Context, key Key) ([]byte, error) {
	k, err := b.opts.encode(key)
	if err != nil {
		return nil, err
	}
	var val []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(_ context.Context, key Key, value []byte) error {
	k, err := b.opts.encode(key)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
}

func (b *Badger) Delete(_ context.Context, key Key) error {
	k, err := b.opts.encode(key)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
}

func (b *Badger) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p, err := b.opts.scanPrefix(prefix)
	if err != nil {
		return errSeq(err)
	}
	return func(yield func(Entry, error) bool) {
		stopped := false
		err := b.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = p
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if !yield(Entry{Key: b.opts.decode(item.KeyCopy(nil)), Value: val}, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Entry{}, err)
		}
	}
}

func (b *Badger) BatchSet(_ context.Context, entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		k, err := b.opts.encode(e.Key)
		if err != nil {
			return err
		}
		if err := wb.Set(k, e.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) BatchDelete(_ context.Context, keys []Key) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		k, err := b.opts.encode(key)
		if err != nil {
			return err
		}
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogLogger forwards badger warnings and errors to slog.
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...any) {
	slog.Error(fmt.Sprintf("badger: "+f, v...))
}

func (slogLogger) Warningf(f string, v ...any) {
	slog.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (slogLogger) Infof(string, ...any)  {}
func (slogLogger) Debugf(string, ...any) {}
