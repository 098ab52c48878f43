package cryptography

import (
	"crypto/ecdsa"
	"crypto/rand"

	ethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

var (
	_ Signer    = (*Secp256k1PrivateKey)(nil)
	_ PublicKey = (*Secp256k1PublicKey)(nil)
)

type Secp256k1PrivateKey struct {
	sk *ecdsa.PrivateKey
}

func NewSecp256k1PrivateKey() (*Secp256k1PrivateKey, error) {
	sk, err := ecdsa.GenerateKey(ethCrypto.S256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating secp256k1 key")
	}

	return &Secp256k1PrivateKey{sk}, nil
}

func NewSecp256k1PrivateKeyFromBytes(d []byte) (*Secp256k1PrivateKey, error) {
	sk, err := ethCrypto.ToECDSA(d)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling secp256k1 key")
	}

	return &Secp256k1PrivateKey{sk}, nil
}

// secpDigest reduces arbitrary-length digests to the 32 bytes the curve
// signer requires.
func secpDigest(digest []byte) []byte {
	if len(digest) == 32 {
		return digest
	}

	h := sha3.Sum256(digest)
	return h[:]
}

func (p *Secp256k1PrivateKey) Sign(digest []byte) ([]byte, error) {
	return ethCrypto.Sign(secpDigest(digest), p.sk)
}

func (p *Secp256k1PrivateKey) Public() (PublicKey, error) {
	return &Secp256k1PublicKey{&p.sk.PublicKey}, nil
}

func (p *Secp256k1PrivateKey) Bytes() ([]byte, error) {
	return ethCrypto.FromECDSA(p.sk), nil
}

type Secp256k1PublicKey struct {
	pk *ecdsa.PublicKey
}

func NewSecp256k1PublicKey(d []byte) (*Secp256k1PublicKey, error) {
	pk, err := ethCrypto.UnmarshalPubkey(d)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling secp256k1 public key")
	}

	return &Secp256k1PublicKey{pk}, nil
}

func (p *Secp256k1PublicKey) Verify(signature, msg []byte) (bool, error) {
	sig := signature
	if len(sig) == 65 {
		// strip the recovery id appended by the signer
		sig = sig[:64]
	}

	return ethCrypto.VerifySignature(
		ethCrypto.FromECDSAPub(p.pk),
		secpDigest(msg),
		sig,
	), nil
}

func (p *Secp256k1PublicKey) Bytes() ([]byte, error) {
	return ethCrypto.FromECDSAPub(p.pk), nil
}
