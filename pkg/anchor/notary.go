package anchor

import "context"

// Notary is the external notarization collaborator. It is treated as
// high-latency and frequently unreachable: Submit and Check are the
// only operations in this package expected to block on I/O, and both
// are retryable by key.
type Notary interface {
	// Submit hands a root hash to the notary and returns its
	// submission id.
	Submit(ctx context.Context, root []byte) (string, error)

	// Check asks whether an attestation is retrievable for a prior
	// submission. A nil attestation with nil error means still
	// pending.
	Check(ctx context.Context, id string) (*Attestation, error)
}
