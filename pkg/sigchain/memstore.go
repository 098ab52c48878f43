package sigchain

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

var (
	_ Storage = (*MemStore)(nil)
)

// MemStore keeps a chain and its auxiliary import batches in memory.
// Mostly useful for tests and one-shot verification of exported
// chains.
type MemStore struct {
	mu sync.RWMutex

	links   [][]byte
	imports map[cid.Cid][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		imports: make(map[cid.Cid][]byte),
	}
}

func importKey(h Hash) cid.Cid {
	// a link hash is already a multihash; wrap it directly
	return cid.NewCidV1(cid.Raw, multihash.Multihash(h))
}

func (m *MemStore) LoadChain(_ context.Context) ([]*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain := make([]*Link, 0, len(m.links))
	for _, d := range m.links {
		l := &Link{}
		if err := l.Unmarshal(d); err != nil {
			return nil, errors.Wrap(err, "unmarshaling link")
		}

		chain = append(chain, l)
	}

	return chain, nil
}

func (m *MemStore) AppendLink(_ context.Context, l *Link) error {
	d, err := l.Marshal()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.links = append(m.links, d)

	return nil
}

func (m *MemStore) Head(_ context.Context) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.links) == 0 {
		return nil, nil
	}

	l := &Link{}
	if err := l.Unmarshal(m.links[len(m.links)-1]); err != nil {
		return nil, errors.Wrap(err, "unmarshaling head link")
	}

	return l, nil
}

func (m *MemStore) PutImport(_ context.Context, b *ImportBatch) error {
	d, err := b.Marshal()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.imports[importKey(b.Head)] = d

	return nil
}

func (m *MemStore) GetImport(_ context.Context, h Hash) (*ImportBatch, error) {
	m.mu.RLock()
	d, ok := m.imports[importKey(h)]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	b := &ImportBatch{}
	if err := b.Unmarshal(d); err != nil {
		return nil, err
	}

	return b, nil
}
