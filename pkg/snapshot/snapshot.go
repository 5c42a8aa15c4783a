// Package snapshot persists named graphs into a kv.Store.
//
// A snapshot is one meta record plus one record per vertex, all
// msgpack-encoded. Payloads above a size threshold are zstd-compressed.
// Many snapshots can share one store; each Store scopes its keys under a
// configurable prefix.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/sodg/pkg/dump"
	"github.com/haivivi/sodg/pkg/kv"
	"github.com/haivivi/sodg/pkg/sodg"
)

// KV key layout (relative to the configured prefix):
//
//	{prefix}:m:{name}        → msgpack Meta
//	{prefix}:v:{name}:{id}   → msgpack vertex record

// Sentinel errors.
var (
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("snapshot: not found")

	// ErrInvalidName is returned for names that cannot be used as a key
	// segment.
	ErrInvalidName = errors.New("snapshot: invalid name")

	// ErrCorrupt is returned by Load when the stored records do not add up
	// to the graph the meta record describes.
	ErrCorrupt = errors.New("snapshot: corrupt")
)

// Meta describes a stored snapshot.
type Meta struct {
	Name        string    `msgpack:"name" json:"name" yaml:"name"`
	Created     time.Time `msgpack:"created" json:"created" yaml:"created"`
	Updated     time.Time `msgpack:"updated" json:"updated" yaml:"updated"`
	Vertices    int       `msgpack:"vertices" json:"vertices" yaml:"vertices"`
	Next        uint32    `msgpack:"next" json:"next" yaml:"next"`
	Fingerprint string    `msgpack:"fingerprint" json:"fingerprint" yaml:"fingerprint"`
}

// Store saves and loads graphs.
type Store struct {
	store  kv.Store
	prefix kv.Key
	now    func() time.Time
}

// New creates a Store over store. prefix may be nil.
func New(store kv.Store, prefix kv.Key) *Store {
	return &Store{store: store, prefix: prefix, now: time.Now}
}

// NewName returns a fresh random snapshot name.
func NewName() string {
	return uuid.New().String()
}

func (s *Store) metaKey(name string) kv.Key {
	return s.prefix.Append("m", name)
}

func (s *Store) vertexKey(name string, id uint32) kv.Key {
	return s.prefix.Append("v", name, strconv.FormatUint(uint64(id), 10))
}

func (s *Store) vertexPrefix(name string) kv.Key {
	return s.prefix.Append("v", name)
}

func validateName(name string) error {
	if name == "" || strings.IndexByte(name, kv.DefaultSeparator) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Stat returns the meta record of the named snapshot.
func (s *Store) Stat(ctx context.Context, name string) (*Meta, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	b, err := s.store.Get(ctx, s.metaKey(name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	var m Meta
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: meta of %s: %v", ErrCorrupt, name, err)
	}
	return &m, nil
}

// Save stores g under name, replacing any previous snapshot of that name.
// An empty name is replaced by NewName.
func (s *Store) Save(ctx context.Context, name string, g *sodg.Graph) (*Meta, error) {
	if name == "" {
		name = NewName()
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	meta := Meta{
		Name:        name,
		Created:     now,
		Updated:     now,
		Vertices:    g.Len(),
		Next:        g.Peek(),
		Fingerprint: dump.Fingerprint(g),
	}
	old, err := s.Stat(ctx, name)
	switch {
	case err == nil:
		meta.Created = old.Created
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	stale, err := s.vertexKeys(ctx, name)
	if err != nil {
		return nil, err
	}

	ids := g.Vertices()
	entries := make([]kv.Entry, 0, len(ids)+1)
	for _, id := range ids {
		b, err := encodeVertex(g, id)
		if err != nil {
			return nil, fmt.Errorf("snapshot: encode ν%d: %w", id, err)
		}
		key := s.vertexKey(name, id)
		delete(stale, key.String())
		entries = append(entries, kv.Entry{Key: key, Value: b})
	}
	mb, err := msgpack.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	entries = append(entries, kv.Entry{Key: s.metaKey(name), Value: mb})
	if err := s.store.BatchSet(ctx, entries); err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		keys := make([]kv.Key, 0, len(stale))
		for _, k := range stale {
			keys = append(keys, k)
		}
		if err := s.store.BatchDelete(ctx, keys); err != nil {
			return nil, err
		}
	}
	slog.Debug("snapshot: saved", "name", name, "vertices", meta.Vertices, "stale", len(stale))
	return &meta, nil
}

// vertexKeys returns the keys of every stored vertex of name, indexed by
// their string form.
func (s *Store) vertexKeys(ctx context.Context, name string) (map[string]kv.Key, error) {
	out := make(map[string]kv.Key)
	for e, err := range s.store.List(ctx, s.vertexPrefix(name)) {
		if err != nil {
			return nil, err
		}
		out[e.Key.String()] = e.Key
	}
	return out, nil
}

// Load reads the named snapshot back into a fresh graph. The vertex count
// and fingerprint recorded at save time are verified.
func (s *Store) Load(ctx context.Context, name string) (*sodg.Graph, error) {
	meta, err := s.Stat(ctx, name)
	if err != nil {
		return nil, err
	}

	type loaded struct {
		id  uint32
		rec record
	}
	var all []loaded
	for e, err := range s.store.List(ctx, s.vertexPrefix(name)) {
		if err != nil {
			return nil, err
		}
		last := e.Key[len(e.Key)-1]
		id, err := strconv.ParseUint(last, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex key %s", ErrCorrupt, e.Key)
		}
		var rec record
		if err := msgpack.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("%w: ν%d: %v", ErrCorrupt, id, err)
		}
		all = append(all, loaded{id: uint32(id), rec: rec})
	}
	if len(all) != meta.Vertices {
		return nil, fmt.Errorf("%w: %s has %d vertices, meta says %d", ErrCorrupt, name, len(all), meta.Vertices)
	}

	g := sodg.Empty()
	for _, v := range all {
		if err := g.Add(v.id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	for _, v := range all {
		if err := v.rec.apply(g, v.id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	g.Reserve(meta.Next)

	if fp := dump.Fingerprint(g); fp != meta.Fingerprint {
		return nil, fmt.Errorf("%w: %s fingerprint %s, meta says %s", ErrCorrupt, name, fp, meta.Fingerprint)
	}
	slog.Debug("snapshot: loaded", "name", name, "vertices", len(all))
	return g, nil
}

// Delete removes the named snapshot.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.Stat(ctx, name); err != nil {
		return err
	}
	stale, err := s.vertexKeys(ctx, name)
	if err != nil {
		return err
	}
	keys := make([]kv.Key, 0, len(stale)+1)
	keys = append(keys, s.metaKey(name))
	for _, k := range stale {
		keys = append(keys, k)
	}
	return s.store.BatchDelete(ctx, keys)
}

// List returns the meta records of every snapshot, sorted by name.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	var out []Meta
	for e, err := range s.store.List(ctx, s.prefix.Append("m")) {
		if err != nil {
			return nil, err
		}
		var m Meta
		if err := msgpack.Unmarshal(e.Value, &m); err != nil {
			return nil, fmt.Errorf("%w: meta %s: %v", ErrCorrupt, e.Key, err)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
