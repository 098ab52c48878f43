// Package notary provides a file-backed notarization collaborator: a
// separately-keyed workstation records submitted roots and issues
// JWS-signed attestations. It stands in for a remote notarization
// service in air-gapped setups and in integration tests.
package notary

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
	jose "gopkg.in/square/go-jose.v2"

	"github.com/tcfw/sigil/pkg/anchor"
)

type fileEntry struct {
	Root        []byte `json:"root"`
	SubmittedAt int64  `json:"submitted_at"`
}

type FileNotary struct {
	path string
	key  ed25519.PrivateKey

	mu      sync.Mutex
	entries map[string]fileEntry
}

var _ anchor.Notary = (*FileNotary)(nil)

func NewFileNotary(path string, key ed25519.PrivateKey) (*FileNotary, error) {
	n := &FileNotary{
		path:    path,
		key:     key,
		entries: make(map[string]fileEntry),
	}

	if err := n.read(); err != nil {
		return nil, err
	}

	return n, nil
}

func (n *FileNotary) read() error {
	d, err := ioutil.ReadFile(n.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading notary journal")
	}

	if len(d) == 0 {
		return nil
	}

	if err := json.Unmarshal(d, &n.entries); err != nil {
		return errors.Wrap(err, "unmarshaling notary journal")
	}

	return nil
}

func (n *FileNotary) write() error {
	//assumes locked n.mu

	d, err := json.Marshal(n.entries)
	if err != nil {
		return errors.Wrap(err, "marshaling notary journal")
	}

	if err := ioutil.WriteFile(n.path, d, 0600); err != nil {
		return errors.Wrap(err, "writing notary journal")
	}

	return nil
}

func (n *FileNotary) Submit(_ context.Context, root []byte) (string, error) {
	id, err := multibase.Encode(multibase.Base58BTC, root)
	if err != nil {
		return "", errors.Wrap(err, "deriving submission id")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.entries[id]; !ok {
		n.entries[id] = fileEntry{
			Root:        root,
			SubmittedAt: time.Now().Unix(),
		}

		if err := n.write(); err != nil {
			return "", err
		}
	}

	return id, nil
}

type attestationClaims struct {
	Root      string `json:"root"`
	Timestamp int64  `json:"ts"`
}

func (n *FileNotary) Check(_ context.Context, id string) (*anchor.Attestation, error) {
	n.mu.Lock()
	e, ok := n.entries[id]
	n.mu.Unlock()

	if !ok {
		return nil, errors.New("unknown submission")
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: n.key}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating attestation signer")
	}

	claims, err := json.Marshal(attestationClaims{
		Root:      id,
		Timestamp: e.SubmittedAt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling attestation claims")
	}

	jws, err := signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "signing attestation")
	}

	token, err := jws.CompactSerialize()
	if err != nil {
		return nil, errors.Wrap(err, "serializing attestation")
	}

	return &anchor.Attestation{
		Root:      e.Root,
		Timestamp: e.SubmittedAt,
		Token:     []byte(token),
	}, nil
}
