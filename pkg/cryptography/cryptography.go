package cryptography

import (
	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
)

// Signer is the signing capability injected into the chain store. Key
// material is owned by the caller (key file, hardware token), never by
// the chain core.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
	Public() (PublicKey, error)
	Bytes() ([]byte, error)
}

type PublicKey interface {
	Verify(signature, msg []byte) (bool, error)
	Bytes() ([]byte, error)
}

const (
	KeyTypeEd25519   = "ed25519"
	KeyTypeSecp256k1 = "secp256k1"
	KeyTypeBls12381  = "bls12381"
)

func NewSignerFromBytes(keyType string, d []byte) (Signer, error) {
	switch keyType {
	case KeyTypeEd25519:
		return NewEd25519PrivateKeyFromBytes(d)
	case KeyTypeSecp256k1:
		return NewSecp256k1PrivateKeyFromBytes(d)
	case KeyTypeBls12381:
		return NewBls12381PrivateKeyFromBytes(d)
	default:
		return nil, errors.Errorf("unsupported key type: %s", keyType)
	}
}

func DecodeMultibase(mb string) ([]byte, error) {
	_, d, err := multibase.Decode(mb)
	return d, err
}

func EncodeMultibase(pk PublicKey) (string, error) {
	raw, err := pk.Bytes()
	if err != nil {
		return "", errors.Wrap(err, "encoding public key")
	}

	return multibase.Encode(multibase.Base58BTC, raw)
}
