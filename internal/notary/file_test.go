package notary

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jose "gopkg.in/square/go-jose.v2"
)

func testNotary(t *testing.T, path string) (*FileNotary, ed25519.PublicKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	n, err := NewFileNotary(path, priv)
	require.NoError(t, err)

	return n, pub
}

func TestSubmitAndCheck(t *testing.T) {
	ctx := context.Background()

	n, pub := testNotary(t, filepath.Join(t.TempDir(), "journal.json"))

	root := []byte{1, 2, 3, 4}

	id, err := n.Submit(ctx, root)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// submitting the same root again keeps the original timestamp
	id2, err := n.Submit(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	att, err := n.Check(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, root, att.Root)
	require.NotEmpty(t, att.Token)

	// the token verifies against the notary key
	jws, err := jose.ParseSigned(string(att.Token))
	require.NoError(t, err)

	_, err = jws.Verify(pub)
	assert.NoError(t, err)
}

func TestCheckUnknownSubmission(t *testing.T) {
	n, _ := testNotary(t, filepath.Join(t.TempDir(), "journal.json"))

	_, err := n.Check(context.Background(), "zunknown")
	assert.Error(t, err)
}

func TestJournalSurvivesReopen(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "journal.json")

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	n, err := NewFileNotary(path, priv)
	require.NoError(t, err)

	root := []byte{9, 8, 7}
	id, err := n.Submit(ctx, root)
	require.NoError(t, err)

	n2, err := NewFileNotary(path, priv)
	require.NoError(t, err)

	att, err := n2.Check(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, root, att.Root)
}
