package merkle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestVerifyAgainstBuiltTree(t *testing.T) {
	require := require.New(t)

	entries := []Entry{
		{Account: addr(0xA), Ids: []uint64{6, 3}},
		{Account: addr(0xB), Ids: []uint64{2}},
		{Account: addr(0xC), Ids: []uint64{9, 1, 5}},
	}
	tree := BuildTree(entries)
	root := tree.Root()
	require.NotEqual(common.Hash{}, root)

	for _, e := range entries {
		proof, err := tree.Proof(e.Account, e.Ids)
		require.NoError(err)
		require.NoError(Verify(EncodeLeaf(e.Account, e.Ids), proof, root))
	}
}

func TestProofDoesNotTransfer(t *testing.T) {
	require := require.New(t)

	entries := []Entry{
		{Account: addr(0xA), Ids: []uint64{6, 3}},
		{Account: addr(0xB), Ids: []uint64{2}},
	}
	tree := BuildTree(entries)

	proofA, err := tree.Proof(addr(0xA), []uint64{6, 3})
	require.NoError(err)

	// B presenting A's proof fails: the leaf is B's own allocation.
	require.ErrorIs(
		Verify(EncodeLeaf(addr(0xB), []uint64{2}), proofA, tree.Root()),
		ErrInvalidProof)

	// A claiming different ids with their own proof fails too.
	require.ErrorIs(
		Verify(EncodeLeaf(addr(0xA), []uint64{6}), proofA, tree.Root()),
		ErrInvalidProof)
}

func TestLeafEncodingIsOrderSensitive(t *testing.T) {
	require := require.New(t)

	require.NotEqual(
		EncodeLeaf(addr(0xA), []uint64{6, 3}),
		EncodeLeaf(addr(0xA), []uint64{3, 6}))
}

func TestRootIndependentOfEntryOrder(t *testing.T) {
	require := require.New(t)

	a := BuildTree([]Entry{
		{Account: addr(1), Ids: []uint64{1}},
		{Account: addr(2), Ids: []uint64{2}},
		{Account: addr(3), Ids: []uint64{3}},
	})
	b := BuildTree([]Entry{
		{Account: addr(3), Ids: []uint64{3}},
		{Account: addr(1), Ids: []uint64{1}},
		{Account: addr(2), Ids: []uint64{2}},
	})
	require.Equal(a.Root(), b.Root())
}

func TestSingleEntryTree(t *testing.T) {
	require := require.New(t)

	tree := BuildTree([]Entry{{Account: addr(7), Ids: []uint64{42}}})
	require.Equal(EncodeLeaf(addr(7), []uint64{42}), tree.Root())

	proof, err := tree.Proof(addr(7), []uint64{42})
	require.NoError(err)
	require.Empty(proof)
	require.NoError(Verify(tree.Root(), proof, tree.Root()))
}

func TestOddLeafCount(t *testing.T) {
	require := require.New(t)

	entries := []Entry{
		{Account: addr(1), Ids: []uint64{1}},
		{Account: addr(2), Ids: []uint64{2}},
		{Account: addr(3), Ids: []uint64{3}},
		{Account: addr(4), Ids: []uint64{4}},
		{Account: addr(5), Ids: []uint64{5}},
	}
	tree := BuildTree(entries)
	for _, e := range entries {
		proof, err := tree.Proof(e.Account, e.Ids)
		require.NoError(err)
		require.NoError(Verify(EncodeLeaf(e.Account, e.Ids), proof, tree.Root()))
	}
}

func TestUnknownEntryHasNoProof(t *testing.T) {
	require := require.New(t)

	tree := BuildTree([]Entry{{Account: addr(1), Ids: []uint64{1}}})
	_, err := tree.Proof(addr(2), []uint64{2})
	require.ErrorIs(err, ErrInvalidProof)
}
