package sigchain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// ChainStore persists one device's ordered link sequence. AppendLink
// must be durable before it returns; Head returns nil on an empty
// chain.
type ChainStore interface {
	LoadChain(context.Context) ([]*Link, error)
	AppendLink(context.Context, *Link) error
	Head(context.Context) (*Link, error)
}

// ImportBatch is a self-contained foreign chain segment, keyed by its
// head (latest) hash. Its links keep their own seqno/prev continuity
// and are never interleaved into the local sequence.
type ImportBatch struct {
	Head   Hash
	Device DeviceRole
	Links  []*Link
}

// importBatchWire carries links pre-marshalled so their tagged payload
// variants survive decoding.
type importBatchWire struct {
	Head   Hash       `msgpack:"h"`
	Device DeviceRole `msgpack:"d"`
	Links  [][]byte   `msgpack:"l"`
}

func (b *ImportBatch) Marshal() ([]byte, error) {
	w := &importBatchWire{Head: b.Head, Device: b.Device}

	for _, l := range b.Links {
		d, err := l.Marshal()
		if err != nil {
			return nil, err
		}
		w.Links = append(w.Links, d)
	}

	d, err := msgpack.Marshal(w)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling import batch")
	}

	return d, nil
}

func (b *ImportBatch) Unmarshal(d []byte) error {
	w := &importBatchWire{}
	if err := msgpack.Unmarshal(d, w); err != nil {
		return errors.Wrap(err, "unmarshaling import batch")
	}

	b.Head = w.Head
	b.Device = w.Device
	b.Links = make([]*Link, 0, len(w.Links))

	for _, ld := range w.Links {
		l := &Link{}
		if err := l.Unmarshal(ld); err != nil {
			return errors.Wrap(err, "unmarshaling batch link")
		}
		b.Links = append(b.Links, l)
	}

	return nil
}

type ImportStore interface {
	PutImport(context.Context, *ImportBatch) error
	GetImport(context.Context, Hash) (*ImportBatch, error)
}

// Storage is the full persistence surface a single-device toolkit
// needs from one backend.
type Storage interface {
	ChainStore
	ImportStore
}
