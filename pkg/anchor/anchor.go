package anchor

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"

	"github.com/tcfw/sigil/internal/utils/logging"
)

const (
	defaultMaxAttempts = 8
)

// Anchor owns the proof lifecycle for Merkle roots: it records a
// PENDING proof per root, submits it to the notary and upgrades it to
// CONFIRMED once an attestation is retrievable. Notary failures never
// propagate to chain appends; the proof just stays PENDING for the
// next poll.
type Anchor struct {
	store  ProofStore
	notary Notary

	maxAttempts uint32
	bo          *backoff.Backoff

	mu sync.Mutex
}

type Option func(*Anchor) error

func WithMaxAttempts(n uint32) Option {
	return func(a *Anchor) error {
		a.maxAttempts = n
		return nil
	}
}

func WithBackoff(min, max time.Duration) Option {
	return func(a *Anchor) error {
		a.bo = &backoff.Backoff{Min: min, Max: max}
		return nil
	}
}

func New(store ProofStore, notary Notary, opts ...Option) (*Anchor, error) {
	if store == nil {
		return nil, errors.New("proof store required")
	}
	if notary == nil {
		return nil, errors.New("notary required")
	}

	a := &Anchor{
		store:       store,
		notary:      notary,
		maxAttempts: defaultMaxAttempts,
		bo: &backoff.Backoff{
			Min: 5 * time.Second,
			Max: 5 * time.Minute,
		},
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// AnchorBatch computes the Merkle root over the ordered leaf hashes,
// records a PENDING proof and makes one best-effort submission. The
// root is always returned; a notary failure is logged and left for
// Poll to retry.
func (a *Anchor) AnchorBatch(ctx context.Context, leaves [][]byte) ([]byte, error) {
	root := ComputeRoot(leaves)
	if root == nil {
		return nil, errors.New("empty batch")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if p, err := a.store.GetProof(ctx, root); err == nil {
		// already anchored, idempotent by root
		return p.Root, nil
	} else if !errors.Is(err, ErrProofNotFound) {
		return nil, errors.Wrap(err, "checking existing proof")
	}

	p := &Proof{
		Root:        root,
		State:       ProofStatePending,
		LeafCount:   uint32(len(leaves)),
		SubmittedAt: time.Now().Unix(),
	}

	if err := a.store.StoreProof(ctx, p); err != nil {
		return nil, errors.Wrap(err, "storing proof")
	}

	if _, err := a.poll(ctx, p); err != nil {
		logging.WithError(err).Warn("initial anchor submission failed; queued for retry")
	}

	return root, nil
}

// Submit records a PENDING proof for the root and hands it to the
// notary.
func (a *Anchor) Submit(ctx context.Context, root []byte) (*Proof, error) {
	if _, err := a.AnchorBatch(ctx, [][]byte{root}); err != nil {
		return nil, err
	}

	return a.store.GetProof(ctx, root)
}

// Poll is idempotent and keyed by root: the stored record is re-read
// first, so a stale caller copy can never overwrite a later state. It
// retries submission if the notary never accepted one, otherwise asks
// whether the attestation is retrievable. A CONFIRMED proof is
// returned unchanged. FAILED is only entered after the attempt budget
// is exhausted and the proof remains queryable forever.
func (a *Anchor) Poll(ctx context.Context, p *Proof) (*Proof, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.poll(ctx, p)
}

func (a *Anchor) poll(ctx context.Context, p *Proof) (*Proof, error) {
	stored, err := a.store.GetProof(ctx, p.Root)
	if err == nil {
		p = stored
	} else if !errors.Is(err, ErrProofNotFound) {
		return nil, errors.Wrap(err, "loading proof")
	}

	if p.State != ProofStatePending {
		return p, nil
	}

	p.LastAttemptAt = time.Now().Unix()

	if p.SubmissionID == "" {
		id, err := a.notary.Submit(ctx, p.Root)
		if err != nil {
			return p, a.recordFailure(ctx, p, errors.Wrap(ErrAnchorSubmit, err.Error()))
		}

		p.SubmissionID = id
	}

	att, err := a.notary.Check(ctx, p.SubmissionID)
	if err != nil {
		return p, a.recordFailure(ctx, p, errors.Wrap(ErrAnchorPoll, err.Error()))
	}

	if att != nil {
		p.State = ProofStateConfirmed
		p.Attestation = att
	}

	if err := a.store.StoreProof(ctx, p); err != nil {
		return p, errors.Wrap(err, "storing proof")
	}

	return p, nil
}

func (a *Anchor) recordFailure(ctx context.Context, p *Proof, cause error) error {
	p.Attempts++
	if p.Attempts >= a.maxAttempts {
		p.State = ProofStateFailed
		logging.Entry().
			WithField("root", p.Root).
			WithField("attempts", p.Attempts).
			Error("anchor proof failed after retry budget")
	}

	if err := a.store.StoreProof(ctx, p); err != nil {
		return errors.Wrap(err, "storing proof after failure")
	}

	return cause
}

// UpgradeAll polls every stored PENDING proof whose backoff window has
// elapsed. Intended for periodic invocation by an outside scheduler.
func (a *Anchor) UpgradeAll(ctx context.Context) error {
	proofs, err := a.store.LoadProofs(ctx)
	if err != nil {
		return errors.Wrap(err, "loading proofs")
	}

	now := time.Now()

	for _, p := range proofs {
		if p.State != ProofStatePending {
			continue
		}

		wait := a.bo.ForAttempt(float64(p.Attempts))
		if p.LastAttemptAt != 0 && now.Sub(time.Unix(p.LastAttemptAt, 0)) < wait {
			continue
		}

		if _, err := a.Poll(ctx, p); err != nil {
			logging.WithError(err).
				WithField("root", p.Root).
				Warn("anchor poll failed")
		}
	}

	return nil
}
