// Package kv provides the key-value layer that graph snapshots are persisted
// to. Keys are hierarchical paths (e.g. ["snap", "main", "v", "42"]) encoded
// with a configurable separator byte, so that a prefix scan over
// ["snap", "main"] visits exactly one snapshot.
//
// Three backends are provided: Memory (tests, throw-away sessions), Badger
// (embedded LSM store) and SQLite (single-file database).
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrInvalidKey is returned when a key segment contains the separator.
	ErrInvalidKey = errors.New("kv: key segment contains separator")
)

// Key is a hierarchical path of string segments.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Append returns a new key with segs added after k. k is never modified.
func (k Key) Append(segs ...string) Key {
	out := make(Key, 0, len(k)+len(segs))
	out = append(out, k...)
	return append(out, segs...)
}

// Entry is a key-value pair.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List yields every entry strictly under prefix in lexicographic
	// order of the encoded key. A nil prefix lists the whole store.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet stores all entries atomically.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete removes all keys atomically.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases the store.
	Close() error
}

// DefaultSeparator joins key segments unless Options says otherwise.
const DefaultSeparator byte = ':'

// Options configures key encoding. A nil *Options is valid.
type Options struct {
	// Separator joins key segments. Zero means DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o == nil || o.Separator == 0 {
		return DefaultSeparator
	}
	return o.Separator
}

// encode joins the segments of k with the separator.
func (o *Options) encode(k Key) ([]byte, error) {
	sep := o.sep()
	var buf bytes.Buffer
	for i, seg := range k {
		if strings.IndexByte(seg, sep) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, seg)
		}
		if i > 0 {
			buf.WriteByte(sep)
		}
		buf.WriteString(seg)
	}
	return buf.Bytes(), nil
}

// scanPrefix is the encoded form of prefix followed by the separator, so
// that ["ab"] never matches "abc:...". It is nil for an empty prefix.
func (o *Options) scanPrefix(prefix Key) ([]byte, error) {
	if len(prefix) == 0 {
		return nil, nil
	}
	p, err := o.encode(prefix)
	if err != nil {
		return nil, err
	}
	return append(p, o.sep()), nil
}

func (o *Options) decode(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// errSeq returns a sequence that yields only err.
func errSeq(err error) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		yield(Entry{}, err)
	}
}
