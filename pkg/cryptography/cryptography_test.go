package cryptography

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func testDigest() []byte {
	h := sha3.Sum256([]byte("audit event digest"))
	return h[:]
}

func TestEd25519SignVerify(t *testing.T) {
	sk, err := NewEd25519PrivateKey()
	require.NoError(t, err)

	sig, err := sk.Sign(testDigest())
	require.NoError(t, err)

	pk, err := sk.Public()
	require.NoError(t, err)

	ok, err := pk.Verify(sig, testDigest())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = pk.Verify(sig, []byte("different digest"))
	assert.False(t, ok)
}

func TestSecp256k1SignVerify(t *testing.T) {
	sk, err := NewSecp256k1PrivateKey()
	require.NoError(t, err)

	sig, err := sk.Sign(testDigest())
	require.NoError(t, err)

	pk, err := sk.Public()
	require.NoError(t, err)

	ok, err := pk.Verify(sig, testDigest())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = pk.Verify(sig, []byte("different digest"))
	assert.False(t, ok)
}

// secp signing needs a 32-byte digest; longer inputs are reduced before
// hitting the curve and must still verify.
func TestSecp256k1LongDigest(t *testing.T) {
	sk, err := NewSecp256k1PrivateKey()
	require.NoError(t, err)

	msg := []byte("a message much longer than the 32 bytes the curve signer accepts")

	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	pk, err := sk.Public()
	require.NoError(t, err)

	ok, err := pk.Verify(sig, msg)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBls12381SignVerify(t *testing.T) {
	sk := NewBls12381PrivateKey()

	sig, err := sk.Sign(testDigest())
	require.NoError(t, err)

	pk, err := sk.Public()
	require.NoError(t, err)

	ok, err := pk.Verify(sig, testDigest())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = pk.Verify(sig, []byte("different digest"))
	assert.False(t, ok)
}

func TestSignerFromBytesRoundTrip(t *testing.T) {
	ed, err := NewEd25519PrivateKey()
	require.NoError(t, err)

	secp, err := NewSecp256k1PrivateKey()
	require.NoError(t, err)

	for _, tc := range []struct {
		keyType string
		signer  Signer
	}{
		{KeyTypeEd25519, ed},
		{KeyTypeSecp256k1, secp},
		{KeyTypeBls12381, NewBls12381PrivateKey()},
	} {
		raw, err := tc.signer.Bytes()
		require.NoError(t, err, tc.keyType)

		restored, err := NewSignerFromBytes(tc.keyType, raw)
		require.NoError(t, err, tc.keyType)

		sig, err := restored.Sign(testDigest())
		require.NoError(t, err, tc.keyType)

		pk, err := tc.signer.Public()
		require.NoError(t, err, tc.keyType)

		ok, err := pk.Verify(sig, testDigest())
		require.NoError(t, err, tc.keyType)
		assert.True(t, ok, tc.keyType)
	}
}

func TestSignerFromBytesUnknownType(t *testing.T) {
	_, err := NewSignerFromBytes("rsa", nil)
	assert.Error(t, err)
}

func TestMultibaseRoundTrip(t *testing.T) {
	sk, err := NewEd25519PrivateKey()
	require.NoError(t, err)

	pk, err := sk.Public()
	require.NoError(t, err)

	mb, err := EncodeMultibase(pk)
	require.NoError(t, err)

	raw, err := DecodeMultibase(mb)
	require.NoError(t, err)

	pkRaw, err := pk.Bytes()
	require.NoError(t, err)
	assert.Equal(t, pkRaw, raw)
}
