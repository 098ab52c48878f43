package sigchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// foreignSegment builds a standalone enclave chain and exports it whole.
func foreignSegment(t *testing.T, n int) []*Link {
	t.Helper()

	s, _ := testChain(t, n, WithDevice(DeviceEnclave))

	links, err := s.Export(context.Background(), 0, 0)
	require.NoError(t, err)

	return links
}

func TestImportForeignSegment(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 2)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 3)
	claimed := foreign[len(foreign)-1].Hash

	l, err := r.Import(ctx, foreign, claimed)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), l.Seqno)
	assert.Equal(t, EventTypeEnclaveImport, l.Type)

	p, ok := l.Data.(*EnclaveImportPayload)
	require.True(t, ok)
	assert.True(t, p.ForeignHead.Equal(claimed))
	assert.Equal(t, uint32(3), p.ForeignLinkCount)
	assert.Equal(t, DeviceEnclave, p.ForeignDevice)

	// the batch is retrievable from the aux store
	batch, err := ms.GetImport(ctx, claimed)
	require.NoError(t, err)
	assert.Len(t, batch.Links, 3)
	assert.Equal(t, DeviceEnclave, batch.Device)
}

func TestImportStaleRejected(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 1)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 2)
	claimed := foreign[len(foreign)-1].Hash

	_, err = r.Import(ctx, foreign, claimed)
	require.NoError(t, err)

	before := local.Head().Seqno

	_, err = r.Import(ctx, foreign, claimed)
	assert.ErrorIs(t, err, ErrImportStale)

	// the local chain is untouched by a stale import
	assert.Equal(t, before, local.Head().Seqno)
}

func TestImportStaleDetectedAcrossRestart(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 1)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 2)
	claimed := foreign[len(foreign)-1].Hash

	_, err = r.Import(ctx, foreign, claimed)
	require.NoError(t, err)

	// a fresh reconciler rebuilds its seen set from the chain itself
	local2, err := NewStore(ctx, ms)
	require.NoError(t, err)

	r2, err := NewReconciler(ctx, local2, ms)
	require.NoError(t, err)

	_, err = r2.Import(ctx, foreign, claimed)
	assert.ErrorIs(t, err, ErrImportStale)
}

func TestImportRejectsEmptySegment(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 0)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	_, err = r.Import(ctx, nil, NullPrev)
	assert.ErrorIs(t, err, ErrImportRejected)
}

func TestImportRejectsWrongClaimedRoot(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 0)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 2)

	_, err = r.Import(ctx, foreign, Hash{0xba, 0xad})
	assert.ErrorIs(t, err, ErrImportRejected)

	// nothing was committed
	assert.Nil(t, local.Head())
}

func TestImportRejectsTamperedSegment(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 0)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 3)
	foreign[1].Data.(*EntryPayload).Note = "tampered"

	claimed := foreign[len(foreign)-1].Hash

	_, err = r.Import(ctx, foreign, claimed)
	assert.ErrorIs(t, err, ErrImportRejected)
}

func TestImportRejectsTruncatedSegment(t *testing.T) {
	ctx := context.Background()

	local, ms := testChain(t, 0)

	r, err := NewReconciler(ctx, local, ms)
	require.NoError(t, err)

	foreign := foreignSegment(t, 4)

	// claimed root names the real head, but the tail frame went missing
	claimed := foreign[len(foreign)-1].Hash
	truncated := foreign[:3]

	_, err = r.Import(ctx, truncated, claimed)
	assert.ErrorIs(t, err, ErrImportRejected)
}
