package sigchain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrChainCorrupt means the persisted head no longer matches the
	// in-memory head. Fatal; the chain is never auto-repaired.
	ErrChainCorrupt = errors.New("chain corrupt: persisted head diverged")

	ErrSessionOpen = errors.New("session already open")
	ErrNoSession   = errors.New("no open session")

	ErrImportRejected = errors.New("import rejected")
	ErrImportStale    = errors.New("import stale: foreign head already imported")
)

type VerificationKind uint8

const (
	VerificationHashMismatch VerificationKind = iota + 1
	VerificationPrevMismatch
	VerificationSeqno
	VerificationSignature
	VerificationAnchorProof
	VerificationImportBatch
)

func (k VerificationKind) String() string {
	switch k {
	case VerificationHashMismatch:
		return "hash mismatch"
	case VerificationPrevMismatch:
		return "prev hash mismatch"
	case VerificationSeqno:
		return "seqno discontinuity"
	case VerificationSignature:
		return "bad signature"
	case VerificationAnchorProof:
		return "missing or failed anchor proof"
	case VerificationImportBatch:
		return "missing or invalid import batch"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// VerificationError reports the first offending link; the chain is
// untrusted from that seqno forward.
type VerificationError struct {
	Seqno uint64
	Kind  VerificationKind
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("chain verification failed at seqno %d: %s", e.Seqno, e.Kind)
}
