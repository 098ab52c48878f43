package sigchain

import (
	"bytes"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	Version1 uint8 = 1
)

type DeviceRole string

const (
	DeviceNetworked DeviceRole = "networked"
	DeviceEnclave   DeviceRole = "enclave"
)

type EventType int8

const (
	EventTypeEntry EventType = iota + 1
	EventTypeAnchorSubmitted
	EventTypeEnclaveImport
)

// Hash is the SHA3-256 multihash of a link's preimage encoding.
type Hash []byte

// NullPrev roots a chain: the prev hash of seqno 1.
var NullPrev = Hash{}

func (h Hash) Equal(o Hash) bool {
	return bytes.Equal(h, o)
}

func (h Hash) String() string {
	if len(h) == 0 {
		return "<null>"
	}

	s, err := multibase.Encode(multibase.Base58BTC, h)
	if err != nil {
		return "<invalid>"
	}

	return s
}

type Link struct {
	Version   uint8       `msgpack:"V"`
	Seqno     uint64      `msgpack:"s"`
	Device    DeviceRole  `msgpack:"d"`
	Type      EventType   `msgpack:"T"`
	Data      interface{} `msgpack:"p,noinline"`
	Prev      Hash        `msgpack:"v"`
	Hash      Hash        `msgpack:"h"`
	Signature []byte      `msgpack:"g,omitempty"`
	CreatedAt int64       `msgpack:"t"`
}

type EntryPayload struct {
	Class string `msgpack:"c"`
	Note  string `msgpack:"n,omitempty"`
	Data  []byte `msgpack:"d,omitempty"`
}

type AnchorSubmittedPayload struct {
	Root      []byte `msgpack:"r"`
	LeafCount uint32 `msgpack:"n"`
}

type EnclaveImportPayload struct {
	ForeignHead      Hash       `msgpack:"h"`
	ForeignLinkCount uint32     `msgpack:"n"`
	ForeignDevice    DeviceRole `msgpack:"d"`
}

// linkPreimage is the hashed portion of a link. Field set and order are
// part of the chain format; changing either breaks hash reproducibility.
type linkPreimage struct {
	Seqno  uint64      `msgpack:"s"`
	Device DeviceRole  `msgpack:"d"`
	Type   EventType   `msgpack:"T"`
	Data   interface{} `msgpack:"p,noinline"`
	Prev   Hash        `msgpack:"v"`
}

func (l *Link) computeHash() (Hash, error) {
	pre := &linkPreimage{
		Seqno:  l.Seqno,
		Device: l.Device,
		Type:   l.Type,
		Data:   l.Data,
		Prev:   l.Prev,
	}

	d, err := msgpack.Marshal(pre)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling link preimage")
	}

	mh, err := multihash.Sum(d, multihash.SHA3_256, multihash.DefaultLengths[multihash.SHA3_256])
	if err != nil {
		return nil, errors.Wrap(err, "hashing link preimage")
	}

	return Hash(mh), nil
}

func (l *Link) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(l)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling link")
	}

	return b, nil
}

// linkWire defers payload decoding until the event type is known.
type linkWire struct {
	Version   uint8              `msgpack:"V"`
	Seqno     uint64             `msgpack:"s"`
	Device    DeviceRole         `msgpack:"d"`
	Type      EventType          `msgpack:"T"`
	Data      msgpack.RawMessage `msgpack:"p"`
	Prev      Hash               `msgpack:"v"`
	Hash      Hash               `msgpack:"h"`
	Signature []byte             `msgpack:"g"`
	CreatedAt int64              `msgpack:"t"`
}

func (l *Link) Unmarshal(b []byte) error {
	w := &linkWire{}
	if err := msgpack.Unmarshal(b, w); err != nil {
		return err
	}

	l.Version = w.Version
	l.Seqno = w.Seqno
	l.Device = w.Device
	l.Type = w.Type
	l.Prev = w.Prev
	l.Hash = w.Hash
	l.Signature = w.Signature
	l.CreatedAt = w.CreatedAt

	switch w.Type {
	case EventTypeEntry:
		d := &EntryPayload{}
		if err := msgpack.Unmarshal(w.Data, d); err != nil {
			return errors.Wrap(err, "unmarshaling entry payload")
		}
		l.Data = d
	case EventTypeAnchorSubmitted:
		d := &AnchorSubmittedPayload{}
		if err := msgpack.Unmarshal(w.Data, d); err != nil {
			return errors.Wrap(err, "unmarshaling anchor payload")
		}
		l.Data = d
	case EventTypeEnclaveImport:
		d := &EnclaveImportPayload{}
		if err := msgpack.Unmarshal(w.Data, d); err != nil {
			return errors.Wrap(err, "unmarshaling import payload")
		}
		l.Data = d
	default:
		return errors.New("unknown event type")
	}

	return nil
}
