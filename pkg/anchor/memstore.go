package anchor

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ ProofStore = (*MemProofStore)(nil)
)

type MemProofStore struct {
	mu     sync.RWMutex
	proofs map[string][]byte
}

func NewMemProofStore() *MemProofStore {
	return &MemProofStore{
		proofs: make(map[string][]byte),
	}
}

func (m *MemProofStore) StoreProof(_ context.Context, p *Proof) error {
	d, err := msgpack.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshaling proof")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.proofs[string(p.Root)] = d

	return nil
}

func (m *MemProofStore) GetProof(_ context.Context, root []byte) (*Proof, error) {
	m.mu.RLock()
	d, ok := m.proofs[string(root)]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrProofNotFound
	}

	p := &Proof{}
	if err := msgpack.Unmarshal(d, p); err != nil {
		return nil, errors.Wrap(err, "unmarshaling proof")
	}

	return p, nil
}

func (m *MemProofStore) LoadProofs(_ context.Context) ([]*Proof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.proofs))
	for k := range m.proofs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	proofs := make([]*Proof, 0, len(keys))
	for _, k := range keys {
		p := &Proof{}
		if err := msgpack.Unmarshal(m.proofs[k], p); err != nil {
			return nil, errors.Wrap(err, "unmarshaling proof")
		}
		proofs = append(proofs, p)
	}

	return proofs, nil
}
