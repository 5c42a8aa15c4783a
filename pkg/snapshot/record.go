package snapshot

import (
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/sodg/pkg/sodg"
)

// CompressAbove is the payload size in bytes from which payloads are
// stored zstd-compressed.
const CompressAbove = 256

var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

type edge struct {
	Label string `msgpack:"l"`
	To    uint32 `msgpack:"t"`
}

type record struct {
	Edges []edge `msgpack:"e,omitempty"`
	Full  bool   `msgpack:"f,omitempty"`
	Zstd  bool   `msgpack:"z,omitempty"`
	Data  []byte `msgpack:"d,omitempty"`
}

func encodeVertex(g *sodg.Graph, id uint32) ([]byte, error) {
	kids, err := g.Kids(id)
	if err != nil {
		return nil, err
	}
	var rec record
	for _, k := range kids {
		rec.Edges = append(rec.Edges, edge{Label: k.Label, To: k.To})
	}
	if data, err := g.Data(id); err == nil {
		rec.Full = true
		rec.Data = data
		if len(data) >= CompressAbove {
			if z := zenc.EncodeAll(data, nil); len(z) < len(data) {
				rec.Data, rec.Zstd = z, true
			}
		}
	}
	return msgpack.Marshal(&rec)
}

// apply restores edges and payload of id. Every edge target must already
// be in g.
func (r *record) apply(g *sodg.Graph, id uint32) error {
	for _, e := range r.Edges {
		if err := g.Bind(id, e.To, e.Label); err != nil {
			return err
		}
	}
	if !r.Full {
		return nil
	}
	data := r.Data
	if r.Zstd {
		var err error
		if data, err = zdec.DecodeAll(r.Data, nil); err != nil {
			return err
		}
	}
	return g.Put(id, data)
}
