// Package storage provides the durable on-disk persistence backend
// for chains, anchor proofs and import batches.
package storage

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tcfw/sigil/pkg/anchor"
	"github.com/tcfw/sigil/pkg/sigchain"
)

var (
	_ sigchain.Storage  = (*PebbleStore)(nil)
	_ anchor.ProofStore = (*PebbleStore)(nil)
)

const (
	cacheSize = 1 << 20 * 100
)

type keyType byte

const (
	linkTPrefix keyType = iota + 1
	headTPrefix
	proofTPrefix
	importTPrefix
)

func typedKey(t keyType, k ...byte) []byte {
	return append([]byte{byte(t)}, k...)
}

func seqKey(seqno uint64) []byte {
	k := make([]byte, 9)
	k[0] = byte(linkTPrefix)
	binary.BigEndian.PutUint64(k[1:], seqno)
	return k
}

type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	c := pebble.NewCache(cacheSize)
	tc := pebble.NewTableCache(c, 16, 100)
	defer tc.Unref()
	defer c.Unref()

	db, err := pebble.Open(path, &pebble.Options{Cache: c, TableCache: tc})
	if err != nil {
		return nil, errors.Wrap(err, "opening chain repo")
	}

	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) LoadChain(_ context.Context) ([]*sigchain.Link, error) {
	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: typedKey(linkTPrefix),
		UpperBound: typedKey(linkTPrefix + 1),
	})
	defer iter.Close()

	var chain []*sigchain.Link

	for iter.First(); iter.Valid(); iter.Next() {
		l := &sigchain.Link{}
		if err := l.Unmarshal(iter.Value()); err != nil {
			return nil, errors.Wrap(err, "unmarshaling link")
		}

		chain = append(chain, l)
	}

	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating chain")
	}

	return chain, nil
}

// AppendLink writes the link and the head pointer in one synced batch;
// the append is durable before it returns.
func (s *PebbleStore) AppendLink(_ context.Context, l *sigchain.Link) error {
	d, err := l.Marshal()
	if err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()

	if err := b.Set(seqKey(l.Seqno), d, nil); err != nil {
		return errors.Wrap(err, "staging link")
	}
	if err := b.Set(typedKey(headTPrefix), d, nil); err != nil {
		return errors.Wrap(err, "staging head")
	}

	if err := s.db.Apply(b, &pebble.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "persisting link")
	}

	return nil
}

func (s *PebbleStore) Head(_ context.Context) (*sigchain.Link, error) {
	d, done, err := s.db.Get(typedKey(headTPrefix))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading head")
	}
	defer done.Close()

	l := &sigchain.Link{}
	if err := l.Unmarshal(d); err != nil {
		return nil, errors.Wrap(err, "unmarshaling head")
	}

	return l, nil
}

func (s *PebbleStore) PutImport(_ context.Context, b *sigchain.ImportBatch) error {
	d, err := b.Marshal()
	if err != nil {
		return err
	}

	key := typedKey(importTPrefix, b.Head...)
	if err := s.db.Set(key, d, &pebble.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "persisting import batch")
	}

	return nil
}

func (s *PebbleStore) GetImport(_ context.Context, h sigchain.Hash) (*sigchain.ImportBatch, error) {
	d, done, err := s.db.Get(typedKey(importTPrefix, h...))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, sigchain.ErrNotFound
		}
		return nil, errors.Wrap(err, "reading import batch")
	}
	defer done.Close()

	b := &sigchain.ImportBatch{}
	if err := b.Unmarshal(d); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *PebbleStore) StoreProof(_ context.Context, p *anchor.Proof) error {
	d, err := msgpack.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshaling proof")
	}

	key := typedKey(proofTPrefix, p.Root...)
	if err := s.db.Set(key, d, &pebble.WriteOptions{Sync: true}); err != nil {
		return errors.Wrap(err, "persisting proof")
	}

	return nil
}

func (s *PebbleStore) GetProof(_ context.Context, root []byte) (*anchor.Proof, error) {
	d, done, err := s.db.Get(typedKey(proofTPrefix, root...))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, anchor.ErrProofNotFound
		}
		return nil, errors.Wrap(err, "reading proof")
	}
	defer done.Close()

	p := &anchor.Proof{}
	if err := msgpack.Unmarshal(d, p); err != nil {
		return nil, errors.Wrap(err, "unmarshaling proof")
	}

	return p, nil
}

func (s *PebbleStore) LoadProofs(_ context.Context) ([]*anchor.Proof, error) {
	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: typedKey(proofTPrefix),
		UpperBound: typedKey(proofTPrefix + 1),
	})
	defer iter.Close()

	var proofs []*anchor.Proof

	for iter.First(); iter.Valid(); iter.Next() {
		p := &anchor.Proof{}
		if err := msgpack.Unmarshal(iter.Value(), p); err != nil {
			return nil, errors.Wrap(err, "unmarshaling proof")
		}

		proofs = append(proofs, p)
	}

	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating proofs")
	}

	return proofs, nil
}
