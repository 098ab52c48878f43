package sigchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcfw/sigil/pkg/anchor"
	"github.com/tcfw/sigil/pkg/anchor/mock"
)

// verifierFixture builds a chain holding plain entries, an anchored
// session and one imported foreign batch.
func verifierFixture(t *testing.T) (*Store, *MemStore, anchor.ProofStore) {
	t.Helper()

	ctx := context.Background()

	chain, ms := testChain(t, 0)

	proofs := anchor.NewMemProofStore()
	a, err := anchor.New(proofs, mock.NewMockNotary())
	require.NoError(t, err)

	m, err := NewSessionManager(chain, a)
	require.NoError(t, err)

	_, err = m.Start()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := m.Append(ctx, EventTypeEntry, testEntry(i))
		require.NoError(t, err)
	}
	_, err = m.End(ctx)
	require.NoError(t, err)

	r, err := NewReconciler(ctx, chain, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 2)
	_, err = r.Import(ctx, foreign, foreign[len(foreign)-1].Hash)
	require.NoError(t, err)

	return chain, ms, proofs
}

func TestFullVerify(t *testing.T) {
	ctx := context.Background()

	chain, ms, proofs := verifierFixture(t)

	v, err := NewVerifier(chain, proofs, ms)
	require.NoError(t, err)

	assert.NoError(t, v.FullVerify(ctx))
}

func TestFullVerifyMissingAnchorProof(t *testing.T) {
	ctx := context.Background()

	chain, ms, _ := verifierFixture(t)

	// proof store from another repo knows nothing of our roots
	v, err := NewVerifier(chain, anchor.NewMemProofStore(), ms)
	require.NoError(t, err)

	err = v.FullVerify(ctx)
	require.Error(t, err)

	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, VerificationAnchorProof, verr.Kind)
	// the anchor link follows the three session entries
	assert.Equal(t, uint64(4), verr.Seqno)
}

func TestFullVerifyMissingImportBatch(t *testing.T) {
	ctx := context.Background()

	chain, _, proofs := verifierFixture(t)

	v, err := NewVerifier(chain, proofs, NewMemStore())
	require.NoError(t, err)

	err = v.FullVerify(ctx)
	require.Error(t, err)

	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, VerificationImportBatch, verr.Kind)
	assert.Equal(t, uint64(5), verr.Seqno)
}

func TestFullVerifyBatchCountMismatch(t *testing.T) {
	ctx := context.Background()

	chain, ms, proofs := verifierFixture(t)

	// overwrite the stored batch with a truncated copy
	head := chain.Head()
	p, ok := head.Data.(*EnclaveImportPayload)
	require.True(t, ok)

	batch, err := ms.GetImport(ctx, p.ForeignHead)
	require.NoError(t, err)

	batch.Links = batch.Links[:1]
	require.NoError(t, ms.PutImport(ctx, batch))

	v, err := NewVerifier(chain, proofs, ms)
	require.NoError(t, err)

	err = v.FullVerify(ctx)
	require.Error(t, err)

	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, VerificationImportBatch, verr.Kind)
	assert.Equal(t, head.Seqno, verr.Seqno)
}

func TestFullVerifyNilStoresFlagged(t *testing.T) {
	ctx := context.Background()

	chain, _, _ := verifierFixture(t)

	v, err := NewVerifier(chain, nil, nil)
	require.NoError(t, err)

	err = v.FullVerify(ctx)
	require.Error(t, err)

	var verr *VerificationError
	require.ErrorAs(t, err, &verr)
}
