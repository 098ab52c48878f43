// Package mock provides a deterministic in-memory notary for tests of
// the anchor lifecycle without network access.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"

	"github.com/tcfw/sigil/pkg/anchor"
)

type MockNotary struct {
	mu          sync.Mutex
	submissions map[string][]byte
	checks      map[string]int

	// ChecksUntilReady is how many Check calls a submission sees
	// before its attestation becomes retrievable. Zero means
	// immediately.
	ChecksUntilReady int

	// FailSubmit / FailCheck simulate an unreachable notary.
	FailSubmit bool
	FailCheck  bool
}

func NewMockNotary() *MockNotary {
	return &MockNotary{
		submissions: make(map[string][]byte),
		checks:      make(map[string]int),
	}
}

func (n *MockNotary) Submit(_ context.Context, root []byte) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.FailSubmit {
		return "", errors.New("notary unreachable")
	}

	id, err := multibase.Encode(multibase.Base58BTC, root)
	if err != nil {
		return "", err
	}

	n.submissions[id] = root

	return id, nil
}

func (n *MockNotary) Check(_ context.Context, id string) (*anchor.Attestation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.FailCheck {
		return nil, errors.New("notary unreachable")
	}

	root, ok := n.submissions[id]
	if !ok {
		return nil, errors.New("unknown submission")
	}

	n.checks[id]++
	if n.checks[id] <= n.ChecksUntilReady {
		return nil, nil
	}

	return &anchor.Attestation{
		Root:      root,
		Timestamp: time.Now().Unix(),
	}, nil
}

// Submissions reports how many roots the notary has accepted.
func (n *MockNotary) Submissions() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.submissions)
}
