package anchor

import (
	"golang.org/x/crypto/sha3"
)

// ComputeRoot builds a bottom-up binary hash tree over the ordered
// leaves. Adjacent pairs are hashed as SHA3-256(left || right); an odd
// trailing hash at any level is promoted unchanged, never duplicated.
// A single leaf is its own root. The pairing rule is a wire-format
// constant: both devices must derive identical roots for identical
// batches.
func ComputeRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return nil
	}

	level := make([][]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)

		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// odd trailing hash, promote
				next = append(next, level[i])
				continue
			}

			next = append(next, hashPair(level[i], level[i+1]))
		}

		level = next
	}

	return level[0]
}

func hashPair(l, r []byte) []byte {
	buf := make([]byte, 0, len(l)+len(r))
	buf = append(buf, l...)
	buf = append(buf, r...)

	h := sha3.Sum256(buf)
	return h[:]
}
