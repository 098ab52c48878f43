package sigchain

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/pkg/errors"

	"github.com/tcfw/sigil/internal/utils/logging"
)

const (
	// sizing for the duplicate-import fast path; false positives
	// fall through to an exact chain scan
	maxTrackedImports   = 4096
	importFalsePositive = 0.01
)

// Reconciler merges a foreign chain segment, produced offline on
// another device, into the local chain as exactly one committing
// EnclaveImport link. The foreign links keep their own seqno/prev
// continuity and live in the auxiliary import store; the local link is
// the cryptographic commitment to the whole batch.
type Reconciler struct {
	chain   *Store
	imports ImportStore

	seen *bloom.BloomFilter
}

func NewReconciler(ctx context.Context, chain *Store, imports ImportStore) (*Reconciler, error) {
	if chain == nil {
		return nil, errors.New("chain store required")
	}
	if imports == nil {
		return nil, errors.New("import store required")
	}

	r := &Reconciler{
		chain:   chain,
		imports: imports,
		seen:    bloom.NewWithEstimates(maxTrackedImports, importFalsePositive),
	}

	// rebuild the fast path from the committed import links; the
	// chain, not the aux store, is authoritative for staleness
	heads, err := r.importedHeads(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range heads {
		r.seen.Add(h)
	}

	return r, nil
}

func (r *Reconciler) importedHeads(ctx context.Context) ([]Hash, error) {
	links, err := r.chain.Export(ctx, 0, 0)
	if err != nil {
		return nil, errors.Wrap(err, "loading chain")
	}

	var heads []Hash
	for _, l := range links {
		if l.Type != EventTypeEnclaveImport {
			continue
		}

		p, ok := l.Data.(*EnclaveImportPayload)
		if !ok {
			continue
		}

		heads = append(heads, p.ForeignHead)
	}

	return heads, nil
}

// Import verifies the foreign segment and commits it. The segment must
// be internally hash-consistent, rooted at the null prev hash, and its
// tail hash must equal claimedRoot, rejecting forged or partially
// transferred batches. A foreign head that was already
// imported is rejected outright with ErrImportStale; the local chain
// is untouched on any failure.
func (r *Reconciler) Import(ctx context.Context, foreign []*Link, claimedRoot Hash) (*Link, error) {
	if len(foreign) == 0 {
		return nil, errors.Wrap(ErrImportRejected, "empty foreign segment")
	}

	if err := verifySegment(foreign, nil); err != nil {
		return nil, errors.Wrap(ErrImportRejected, err.Error())
	}

	head := foreign[len(foreign)-1].Hash
	if !head.Equal(claimedRoot) {
		return nil, errors.Wrap(ErrImportRejected, "foreign head does not match claimed root")
	}

	if r.seen.Test(head) {
		stale, err := r.isImported(ctx, head)
		if err != nil {
			return nil, err
		}
		if stale {
			return nil, ErrImportStale
		}
	}

	batch := &ImportBatch{
		Head:   head,
		Device: foreign[0].Device,
		Links:  foreign,
	}

	// the aux put is idempotent by key; the chain link below is the
	// commitment, so a crash between the two leaves no stale state
	if err := r.imports.PutImport(ctx, batch); err != nil {
		return nil, errors.Wrap(err, "storing import batch")
	}

	l, err := r.chain.Append(ctx, EventTypeEnclaveImport, &EnclaveImportPayload{
		ForeignHead:      head,
		ForeignLinkCount: uint32(len(foreign)),
		ForeignDevice:    foreign[0].Device,
	})
	if err != nil {
		return nil, errors.Wrap(err, "committing import link")
	}

	r.seen.Add(head)

	logging.Entry().
		WithField("foreign_head", head.String()).
		WithField("links", len(foreign)).
		Info("imported foreign chain segment")

	return l, nil
}

func (r *Reconciler) isImported(ctx context.Context, head Hash) (bool, error) {
	heads, err := r.importedHeads(ctx)
	if err != nil {
		return false, err
	}

	for _, h := range heads {
		if h.Equal(head) {
			return true, nil
		}
	}

	return false, nil
}
