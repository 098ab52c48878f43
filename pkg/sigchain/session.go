package sigchain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tcfw/sigil/internal/utils/logging"
)

// Session is a bounded grouping of appends batched together for
// anchoring. Exactly one session may be open per device at a time.
type Session struct {
	StartSeqno uint64 `msgpack:"s"`
	EndSeqno   uint64 `msgpack:"e"`
	OpenedAt   int64  `msgpack:"o"`
	ClosedAt   int64  `msgpack:"c"`
}

// Anchorer receives a closed session's ordered link hashes and returns
// the Merkle root committed for them. Submission to the notary is the
// anchorer's concern and must never block session close.
type Anchorer interface {
	AnchorBatch(ctx context.Context, leaves [][]byte) ([]byte, error)
}

type SessionManager struct {
	chain    *Store
	anchorer Anchorer

	cur        *Session
	idle       time.Duration
	lastAppend time.Time
}

type SessionOption func(*SessionManager) error

// WithIdleTimeout closes a session via ReapIdle once no append has
// happened for d.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(m *SessionManager) error {
		m.idle = d
		return nil
	}
}

func NewSessionManager(chain *Store, a Anchorer, opts ...SessionOption) (*SessionManager, error) {
	if chain == nil {
		return nil, errors.New("chain store required")
	}
	if a == nil {
		return nil, errors.New("anchorer required")
	}

	m := &SessionManager{
		chain:    chain,
		anchorer: a,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Current returns the open session, nil when closed.
func (m *SessionManager) Current() *Session {
	return m.cur
}

// Start opens a session. Starting while one is open is an error; there
// is no implicit close.
func (m *SessionManager) Start() (*Session, error) {
	if m.cur != nil {
		return nil, ErrSessionOpen
	}

	start := uint64(1)
	if h := m.chain.Head(); h != nil {
		start = h.Seqno + 1
	}

	m.cur = &Session{
		StartSeqno: start,
		OpenedAt:   time.Now().Unix(),
	}
	m.lastAppend = time.Now()

	logging.Entry().WithField("start_seqno", start).Debug("session opened")

	return m.cur, nil
}

// Append attributes a chain append to the open session.
func (m *SessionManager) Append(ctx context.Context, t EventType, data interface{}) (*Link, error) {
	if m.cur == nil {
		return nil, ErrNoSession
	}

	l, err := m.chain.Append(ctx, t, data)
	if err != nil {
		return nil, err
	}

	m.lastAppend = time.Now()

	return l, nil
}

// End closes the open session. Non-empty sessions have their ordered
// link hashes handed to the anchorer, then one AnchorSubmitted link is
// appended referencing the resulting root (after the batch, so a
// batch never contains its own anchor event). An empty session is
// discarded without a batch.
func (m *SessionManager) End(ctx context.Context) (*Session, error) {
	if m.cur == nil {
		return nil, ErrNoSession
	}

	s := m.cur
	m.cur = nil
	s.ClosedAt = time.Now().Unix()

	head := m.chain.Head()
	if head == nil || head.Seqno < s.StartSeqno {
		// empty session, no batch
		return s, nil
	}
	s.EndSeqno = head.Seqno

	links, err := m.chain.Export(ctx, s.StartSeqno, s.EndSeqno)
	if err != nil {
		return nil, errors.Wrap(err, "collecting session links")
	}

	leaves := make([][]byte, 0, len(links))
	for _, l := range links {
		leaves = append(leaves, l.Hash)
	}

	root, err := m.anchorer.AnchorBatch(ctx, leaves)
	if err != nil {
		return nil, errors.Wrap(err, "anchoring session batch")
	}

	if _, err := m.chain.Append(ctx, EventTypeAnchorSubmitted, &AnchorSubmittedPayload{
		Root:      root,
		LeafCount: uint32(len(leaves)),
	}); err != nil {
		return nil, errors.Wrap(err, "appending anchor link")
	}

	logging.Entry().
		WithField("start_seqno", s.StartSeqno).
		WithField("end_seqno", s.EndSeqno).
		WithField("leaves", len(leaves)).
		Debug("session closed and batch anchored")

	return s, nil
}

// ReapIdle closes the session when the idle timeout has elapsed since
// the last attributed append. Intended for periodic invocation by an
// outside scheduler.
func (m *SessionManager) ReapIdle(ctx context.Context, now time.Time) (bool, error) {
	if m.cur == nil || m.idle == 0 {
		return false, nil
	}

	if now.Sub(m.lastAppend) < m.idle {
		return false, nil
	}

	if _, err := m.End(ctx); err != nil {
		return false, err
	}

	return true, nil
}
