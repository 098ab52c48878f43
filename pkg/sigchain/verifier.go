package sigchain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tcfw/sigil/pkg/anchor"
)

// Verifier is the full read-only audit pass: chain continuity, anchor
// coverage and import consistency. Safe to re-run at any time; it
// never mutates anything.
type Verifier struct {
	chain   *Store
	proofs  anchor.ProofStore
	imports ImportStore
}

func NewVerifier(chain *Store, proofs anchor.ProofStore, imports ImportStore) (*Verifier, error) {
	if chain == nil {
		return nil, errors.New("chain store required")
	}

	v := &Verifier{
		chain:   chain,
		proofs:  proofs,
		imports: imports,
	}

	return v, nil
}

// FullVerify returns nil when the whole chain and its referenced
// batches check out, a *VerificationError naming the first offending
// seqno otherwise.
func (v *Verifier) FullVerify(ctx context.Context) error {
	if err := v.chain.Verify(ctx); err != nil {
		return err
	}

	links, err := v.chain.Export(ctx, 0, 0)
	if err != nil {
		return errors.Wrap(err, "loading chain")
	}

	for _, l := range links {
		switch p := l.Data.(type) {
		case *AnchorSubmittedPayload:
			if err := v.checkAnchor(ctx, l, p); err != nil {
				return err
			}
		case *EnclaveImportPayload:
			if err := v.checkImport(ctx, l, p); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *Verifier) checkAnchor(ctx context.Context, l *Link, p *AnchorSubmittedPayload) error {
	if v.proofs == nil {
		return &VerificationError{l.Seqno, VerificationAnchorProof}
	}

	proof, err := v.proofs.GetProof(ctx, p.Root)
	if err != nil {
		if errors.Is(err, anchor.ErrProofNotFound) {
			return &VerificationError{l.Seqno, VerificationAnchorProof}
		}
		return errors.Wrap(err, "loading anchor proof")
	}

	if proof.State != anchor.ProofStatePending && proof.State != anchor.ProofStateConfirmed {
		return &VerificationError{l.Seqno, VerificationAnchorProof}
	}

	return nil
}

func (v *Verifier) checkImport(ctx context.Context, l *Link, p *EnclaveImportPayload) error {
	if v.imports == nil {
		return &VerificationError{l.Seqno, VerificationImportBatch}
	}

	batch, err := v.imports.GetImport(ctx, p.ForeignHead)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &VerificationError{l.Seqno, VerificationImportBatch}
		}
		return errors.Wrap(err, "loading import batch")
	}

	if len(batch.Links) != int(p.ForeignLinkCount) {
		return &VerificationError{l.Seqno, VerificationImportBatch}
	}

	if verr := verifySegment(batch.Links, nil); verr != nil {
		return &VerificationError{l.Seqno, VerificationImportBatch}
	}

	if !batch.Links[len(batch.Links)-1].Hash.Equal(p.ForeignHead) {
		return &VerificationError{l.Seqno, VerificationImportBatch}
	}

	return nil
}
