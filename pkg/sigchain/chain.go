package sigchain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tcfw/sigil/internal/utils/logging"
	"github.com/tcfw/sigil/pkg/cryptography"
)

// Store is the append-only chain store for a single device role.
// Callers serialize writes externally; Append detects a foreign writer
// by re-reading the persisted head immediately before persisting and
// fails closed with ErrChainCorrupt rather than forking.
type Store struct {
	store     ChainStore
	device    DeviceRole
	signer    cryptography.Signer
	verifyKey cryptography.PublicKey

	head *Link
}

type Option func(*Store) error

func WithDevice(d DeviceRole) Option {
	return func(s *Store) error {
		s.device = d
		return nil
	}
}

func WithSigner(k cryptography.Signer) Option {
	return func(s *Store) error {
		s.signer = k
		return nil
	}
}

func WithVerifyKey(k cryptography.PublicKey) Option {
	return func(s *Store) error {
		s.verifyKey = k
		return nil
	}
}

func NewStore(ctx context.Context, cs ChainStore, opts ...Option) (*Store, error) {
	s := &Store{
		store:  cs,
		device: DeviceNetworked,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	head, err := cs.Head(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading chain head")
	}
	s.head = head

	return s, nil
}

func (s *Store) Device() DeviceRole {
	return s.device
}

// Head returns the current in-memory head, nil on an empty chain.
func (s *Store) Head() *Link {
	return s.head
}

func (s *Store) Append(ctx context.Context, t EventType, data interface{}) (*Link, error) {
	persisted, err := s.store.Head(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "re-reading persisted head")
	}

	if !sameHead(persisted, s.head) {
		return nil, ErrChainCorrupt
	}

	l := &Link{
		Version:   Version1,
		Seqno:     1,
		Device:    s.device,
		Type:      t,
		Data:      data,
		Prev:      NullPrev,
		CreatedAt: time.Now().Unix(),
	}

	if s.head != nil {
		l.Seqno = s.head.Seqno + 1
		l.Prev = s.head.Hash
	}

	h, err := l.computeHash()
	if err != nil {
		return nil, err
	}
	l.Hash = h

	if s.signer != nil {
		sig, err := s.signer.Sign(l.Hash)
		if err != nil {
			return nil, errors.Wrap(err, "signing link")
		}
		l.Signature = sig
	}

	if err := s.store.AppendLink(ctx, l); err != nil {
		return nil, errors.Wrap(err, "persisting link")
	}

	s.head = l

	logging.Entry().
		WithField("seqno", l.Seqno).
		WithField("type", l.Type).
		Debug("appended link")

	return l, nil
}

func sameHead(a, b *Link) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Seqno == b.Seqno && a.Hash.Equal(b.Hash)
}

// Verify re-derives every link hash and checks continuity, strict
// seqno ordering and signatures where present. The first offending
// link is reported as a *VerificationError.
func (s *Store) Verify(ctx context.Context) error {
	chain, err := s.store.LoadChain(ctx)
	if err != nil {
		return errors.Wrap(err, "loading chain")
	}

	return verifySegment(chain, s.verifyKey)
}

// verifySegment checks a link sequence rooted at the null prev hash.
// Shared by local chain verification and foreign import verification.
func verifySegment(links []*Link, key cryptography.PublicKey) error {
	var prev *Link

	for _, l := range links {
		if prev == nil {
			if l.Seqno != 1 {
				return &VerificationError{l.Seqno, VerificationSeqno}
			}
			if !l.Prev.Equal(NullPrev) {
				return &VerificationError{l.Seqno, VerificationPrevMismatch}
			}
		} else {
			if l.Seqno != prev.Seqno+1 {
				return &VerificationError{l.Seqno, VerificationSeqno}
			}
			if !l.Prev.Equal(prev.Hash) {
				return &VerificationError{l.Seqno, VerificationPrevMismatch}
			}
		}

		h, err := l.computeHash()
		if err != nil {
			return err
		}
		if !h.Equal(l.Hash) {
			return &VerificationError{l.Seqno, VerificationHashMismatch}
		}

		if len(l.Signature) != 0 && key != nil {
			ok, err := key.Verify(l.Signature, l.Hash)
			if err != nil || !ok {
				return &VerificationError{l.Seqno, VerificationSignature}
			}
		}

		prev = l
	}

	return nil
}

// Export returns the ordered links with from <= seqno <= to. A zero
// `to` means up to the head.
func (s *Store) Export(ctx context.Context, from, to uint64) ([]*Link, error) {
	chain, err := s.store.LoadChain(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading chain")
	}

	if from == 0 {
		from = 1
	}

	out := make([]*Link, 0, len(chain))
	for _, l := range chain {
		if l.Seqno < from {
			continue
		}
		if to != 0 && l.Seqno > to {
			break
		}
		out = append(out, l)
	}

	return out, nil
}
