package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/sha3"
)

func testLeaves(n int) [][]byte {
	leaves := make([][]byte, 0, n)

	for i := 0; i < n; i++ {
		h := sha3.Sum256([]byte{byte(i)})
		leaves = append(leaves, h[:])
	}

	return leaves
}

func TestComputeRootSingleLeaf(t *testing.T) {
	leaves := testLeaves(1)

	root := ComputeRoot(leaves)

	assert.Equal(t, leaves[0], root)
}

func TestComputeRootEmpty(t *testing.T) {
	assert.Nil(t, ComputeRoot(nil))
}

func TestComputeRootDeterministic(t *testing.T) {
	leaves := testLeaves(7)

	assert.Equal(t, ComputeRoot(leaves), ComputeRoot(leaves))
}

func TestComputeRootOrderSensitive(t *testing.T) {
	leaves := testLeaves(4)

	root := ComputeRoot(leaves)

	permuted := [][]byte{leaves[1], leaves[0], leaves[2], leaves[3]}

	assert.NotEqual(t, root, ComputeRoot(permuted))
}

// Three leaves must pair the first two and promote the third
// unchanged: root == H(H(A||B) || C).
func TestComputeRootOddPromotion(t *testing.T) {
	leaves := testLeaves(3)

	ab := hashPair(leaves[0], leaves[1])
	expected := hashPair(ab, leaves[2])

	assert.Equal(t, expected, ComputeRoot(leaves))
}

func TestComputeRootFiveLeaves(t *testing.T) {
	leaves := testLeaves(5)

	ab := hashPair(leaves[0], leaves[1])
	cd := hashPair(leaves[2], leaves[3])
	abcd := hashPair(ab, cd)

	// the fifth leaf is promoted through two levels before pairing
	expected := hashPair(abcd, leaves[4])

	assert.Equal(t, expected, ComputeRoot(leaves))
}

func TestComputeRootDoesNotMutateLeaves(t *testing.T) {
	leaves := testLeaves(3)

	orig := make([][]byte, len(leaves))
	for i, l := range leaves {
		cp := make([]byte, len(l))
		copy(cp, l)
		orig[i] = cp
	}

	ComputeRoot(leaves)

	assert.Equal(t, orig, leaves)
}
