package anchor

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type ProofState uint8

const (
	ProofStatePending ProofState = iota + 1
	ProofStateConfirmed
	ProofStateFailed
)

func (s ProofState) String() string {
	switch s {
	case ProofStatePending:
		return "PENDING"
	case ProofStateConfirmed:
		return "CONFIRMED"
	case ProofStateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Attestation is the notary's time-stamped statement that a root hash
// existed at or before Timestamp. Token is the notary's own evidence
// blob (a JWS for the file notary) and is kept opaque here.
type Attestation struct {
	Root      []byte `msgpack:"r"`
	Timestamp int64  `msgpack:"t"`
	Token     []byte `msgpack:"k,omitempty"`
}

// Proof tracks the notarization lifecycle of one Merkle root. The
// state machine is monotone: PENDING may move to CONFIRMED or, after
// bounded retries, to FAILED. CONFIRMED never regresses and proofs are
// never deleted.
type Proof struct {
	Root          []byte       `msgpack:"r"`
	State         ProofState   `msgpack:"s"`
	LeafCount     uint32       `msgpack:"n"`
	SubmittedAt   int64        `msgpack:"t"`
	SubmissionID  string       `msgpack:"i,omitempty"`
	Attempts      uint32       `msgpack:"a"`
	LastAttemptAt int64        `msgpack:"la"`
	Attestation   *Attestation `msgpack:"at,omitempty"`
}

var (
	ErrProofNotFound = errors.New("proof not found")

	ErrAnchorSubmit = errors.New("anchor submission failed")
	ErrAnchorPoll   = errors.New("anchor poll failed")
)

// ProofStore persists proofs keyed by root hash. StoreProof overwrites
// by key; proofs are never removed.
type ProofStore interface {
	StoreProof(context.Context, *Proof) error
	GetProof(context.Context, []byte) (*Proof, error)
	LoadProofs(context.Context) ([]*Proof, error)
}
