package cryptography

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"
)

var (
	_ Signer    = (*Ed25519PrivateKey)(nil)
	_ PublicKey = (*Ed25519PublicKey)(nil)
)

type Ed25519PrivateKey struct {
	sk ed25519.PrivateKey
}

func NewEd25519PrivateKey() (*Ed25519PrivateKey, error) {
	_, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating ed25519 key")
	}

	return &Ed25519PrivateKey{sk}, nil
}

func NewEd25519PrivateKeyFromBytes(d []byte) (*Ed25519PrivateKey, error) {
	if len(d) != ed25519.PrivateKeySize {
		return nil, errors.New("invalid ed25519 private key length")
	}

	return &Ed25519PrivateKey{ed25519.PrivateKey(d)}, nil
}

func (p *Ed25519PrivateKey) Sign(digest []byte) ([]byte, error) {
	return ed25519.Sign(p.sk, digest), nil
}

func (p *Ed25519PrivateKey) Public() (PublicKey, error) {
	return &Ed25519PublicKey{p.sk.Public().(ed25519.PublicKey)}, nil
}

func (p *Ed25519PrivateKey) Bytes() ([]byte, error) {
	return []byte(p.sk), nil
}

type Ed25519PublicKey struct {
	pk ed25519.PublicKey
}

func NewEd25519PublicKey(d []byte) (*Ed25519PublicKey, error) {
	if len(d) != ed25519.PublicKeySize {
		return nil, errors.New("invalid ed25519 public key length")
	}

	return &Ed25519PublicKey{ed25519.PublicKey(d)}, nil
}

func (p *Ed25519PublicKey) Verify(signature, msg []byte) (bool, error) {
	return ed25519.Verify(p.pk, msg, signature), nil
}

func (p *Ed25519PublicKey) Bytes() ([]byte, error) {
	return []byte(p.pk), nil
}
