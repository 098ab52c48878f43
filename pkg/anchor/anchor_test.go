package anchor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/tcfw/sigil/pkg/anchor"
	"github.com/tcfw/sigil/pkg/anchor/mock"
)

func testLeaves(n int) [][]byte {
	leaves := make([][]byte, 0, n)

	for i := 0; i < n; i++ {
		h := sha3.Sum256([]byte{byte(i)})
		leaves = append(leaves, h[:])
	}

	return leaves
}

func TestAnchorBatchLifecycle(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()
	notary.ChecksUntilReady = 1

	a, err := anchor.New(anchor.NewMemProofStore(), notary)
	require.NoError(t, err)

	leaves := testLeaves(3)

	root, err := a.AnchorBatch(ctx, leaves)
	require.NoError(t, err)
	assert.Equal(t, anchor.ComputeRoot(leaves), root)

	p, err := a.Submit(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStatePending, p.State)
	assert.NotEmpty(t, p.SubmissionID)

	p, err = a.Poll(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStateConfirmed, p.State)
	require.NotNil(t, p.Attestation)
	assert.Equal(t, root, p.Attestation.Root)
}

func TestAnchorBatchIdempotentByRoot(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()

	a, err := anchor.New(anchor.NewMemProofStore(), notary)
	require.NoError(t, err)

	leaves := testLeaves(2)

	r1, err := a.AnchorBatch(ctx, leaves)
	require.NoError(t, err)

	r2, err := a.AnchorBatch(ctx, leaves)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, notary.Submissions())
}

func TestPollNeverRegressesConfirmed(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()

	a, err := anchor.New(anchor.NewMemProofStore(), notary)
	require.NoError(t, err)

	p, err := a.Submit(ctx, testLeaves(1)[0])
	require.NoError(t, err)

	p, err = a.Poll(ctx, p)
	require.NoError(t, err)
	require.Equal(t, anchor.ProofStateConfirmed, p.State)

	// a now-unreachable notary must not touch a confirmed proof
	notary.FailCheck = true

	p, err = a.Poll(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStateConfirmed, p.State)
}

func TestPollStaleCopyDoesNotRegress(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()
	store := anchor.NewMemProofStore()

	a, err := anchor.New(store, notary)
	require.NoError(t, err)

	root, err := a.AnchorBatch(ctx, testLeaves(2))
	require.NoError(t, err)

	p, err := store.GetProof(ctx, root)
	require.NoError(t, err)
	require.Equal(t, anchor.ProofStateConfirmed, p.State)

	// a retry from an older process image still holds a pending copy
	stale := &anchor.Proof{
		Root:      root,
		State:     anchor.ProofStatePending,
		LeafCount: 2,
	}

	notary.FailSubmit = true

	got, err := a.Poll(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStateConfirmed, got.State)

	// the stored record kept its state and clean attempt counter
	p, err = store.GetProof(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStateConfirmed, p.State)
	assert.Zero(t, p.Attempts)
}

func TestSubmitFailureQueuesForRetry(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()
	notary.FailSubmit = true

	store := anchor.NewMemProofStore()

	a, err := anchor.New(store, notary)
	require.NoError(t, err)

	leaves := testLeaves(4)

	// the root is still committed even though the notary is down
	root, err := a.AnchorBatch(ctx, leaves)
	require.NoError(t, err)

	p, err := store.GetProof(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStatePending, p.State)
	assert.Empty(t, p.SubmissionID)

	// notary back up, retry succeeds
	notary.FailSubmit = false

	p, err = a.Poll(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStateConfirmed, p.State)
}

func TestFailedAfterRetryBudget(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()
	notary.FailSubmit = true

	store := anchor.NewMemProofStore()

	a, err := anchor.New(store, notary, anchor.WithMaxAttempts(2))
	require.NoError(t, err)

	root, err := a.AnchorBatch(ctx, testLeaves(1))
	require.NoError(t, err)

	p, err := store.GetProof(ctx, root)
	require.NoError(t, err)

	_, err = a.Poll(ctx, p)
	assert.ErrorIs(t, err, anchor.ErrAnchorSubmit)

	// budget exhausted; the proof remains queryable forever
	p, err = store.GetProof(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStateFailed, p.State)
	assert.Equal(t, uint32(2), p.Attempts)
}

func TestUpgradeAll(t *testing.T) {
	ctx := context.Background()

	notary := mock.NewMockNotary()
	store := anchor.NewMemProofStore()

	a, err := anchor.New(store, notary)
	require.NoError(t, err)

	leaves := testLeaves(3)

	// pending proofs recovered from a previous run, never yet attempted
	for _, l := range leaves[:2] {
		require.NoError(t, store.StoreProof(ctx, &anchor.Proof{
			Root:      l,
			State:     anchor.ProofStatePending,
			LeafCount: 1,
		}))
	}

	// one still inside its backoff window, must be left alone
	require.NoError(t, store.StoreProof(ctx, &anchor.Proof{
		Root:          leaves[2],
		State:         anchor.ProofStatePending,
		LeafCount:     1,
		Attempts:      1,
		LastAttemptAt: time.Now().Unix(),
	}))

	require.NoError(t, a.UpgradeAll(ctx))

	for _, l := range leaves[:2] {
		p, err := store.GetProof(ctx, l)
		require.NoError(t, err)
		assert.Equal(t, anchor.ProofStateConfirmed, p.State)
	}

	p, err := store.GetProof(ctx, leaves[2])
	require.NoError(t, err)
	assert.Equal(t, anchor.ProofStatePending, p.State)
}
