package cryptography

import (
	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	sig "github.com/drand/kyber/sign/bls"
	"github.com/drand/kyber/util/random"
	"github.com/pkg/errors"
)

var (
	_ Signer    = (*Bls12381PrivateKey)(nil)
	_ PublicKey = (*Bls12381PublicKey)(nil)

	pairing = bls.NewBLS12381Suite()
)

type Bls12381PrivateKey struct {
	sk kyber.Scalar
}

func NewBls12381PrivateKey() *Bls12381PrivateKey {
	return &Bls12381PrivateKey{
		pairing.G1().Scalar().Pick(random.New()),
	}
}

func NewBls12381PrivateKeyFromBytes(d []byte) (*Bls12381PrivateKey, error) {
	sk := pairing.G1().Scalar()
	if err := sk.UnmarshalBinary(d); err != nil {
		return nil, errors.Wrap(err, "unmarshaling bls12381 key")
	}

	return &Bls12381PrivateKey{sk}, nil
}

func (b *Bls12381PrivateKey) Sign(digest []byte) ([]byte, error) {
	scheme := sig.NewSchemeOnG2(pairing)
	return scheme.Sign(b.sk, digest)
}

func (b *Bls12381PrivateKey) Public() (PublicKey, error) {
	// keys live on G1, signatures on G2
	pk := pairing.G1().Point().Mul(b.sk, nil)
	return &Bls12381PublicKey{pk}, nil
}

func (b *Bls12381PrivateKey) Bytes() ([]byte, error) {
	return b.sk.MarshalBinary()
}

type Bls12381PublicKey struct {
	kyber.Point
}

func NewBls12381PublicKey(d []byte) (*Bls12381PublicKey, error) {
	pk := &Bls12381PublicKey{pairing.G1().Point()}
	if err := pk.UnmarshalBinary(d); err != nil {
		return nil, errors.Wrap(err, "unmarshaling bls12381 public key")
	}

	return pk, nil
}

func (b *Bls12381PublicKey) Bytes() ([]byte, error) {
	return b.Point.MarshalBinary()
}

func (b *Bls12381PublicKey) Verify(signature, msg []byte) (bool, error) {
	scheme := sig.NewSchemeOnG2(pairing)
	if err := scheme.Verify(b.Point, msg, signature); err != nil {
		return false, err
	}

	return true, nil
}
