package kv

import (
	"bytes"
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Memory is a Store held entirely in process memory. Values are copied on
// the way in and out. Safe for concurrent use.
type Memory struct {
	opts *Options

	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store. opts may be nil.
func NewMemory(opts *Options) *Memory {
	return &Memory{opts: opts, data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k, err := m.opts.encode(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(k)]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(ctx context.Context, key Key, value []byte) error {
	return m.BatchSet(ctx, []Entry{{Key: key, Value: value}})
}

func (m *Memory) Delete(ctx context.Context, key Key) error {
	return m.BatchDelete(ctx, []Key{key})
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p, err := m.opts.scanPrefix(prefix)
	if err != nil {
		return errSeq(err)
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	vals := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, string(p)) {
			keys = append(keys, k)
			vals[k] = bytes.Clone(v)
		}
	}
	m.mu.RUnlock()
	slices.Sort(keys)

	return func(yield func(Entry, error) bool) {
		for _, k := range keys {
			if !yield(Entry{Key: m.opts.decode([]byte(k)), Value: vals[k]}, nil) {
				return
			}
		}
	}
}

func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	encoded := make([]string, len(entries))
	for i, e := range entries {
		k, err := m.opts.encode(e.Key)
		if err != nil {
			return err
		}
		encoded[i] = string(k)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range entries {
		m.data[encoded[i]] = bytes.Clone(e.Value)
	}
	return nil
}

func (m *Memory) BatchDelete(_ context.Context, keys []Key) error {
	encoded := make([]string, len(keys))
	for i, key := range keys {
		k, err := m.opts.encode(key)
		if err != nil {
			return err
		}
		encoded[i] = string(k)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range encoded {
		delete(m.data, k)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
