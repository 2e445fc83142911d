// Package merkle implements the whitelist claim proofs. The sale operator
// publishes a single root over all whitelist entries; a claimant presents
// the ids allocated to them plus a proof of inclusion, and the engine
// verifies it against the stored root.
//
// Hashing follows the sorted-pair convention (each parent is the keccak of
// the two children concatenated in ascending byte order), which is what the
// off-chain tree builders for these collections produce. The leaf encoding
// in EncodeLeaf must match the published tree byte for byte or every proof
// fails.
package merkle

import (
	"bytes"
	"errors"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidProof is returned when a proof does not connect a leaf to the
// expected root.
var ErrInvalidProof = errors.New("Invalid proof")

// Entry is one whitelist allocation: an address and the raw lane ids
// reserved for it.
type Entry struct {
	Account common.Address
	Ids     []uint64
}

// EncodeLeaf produces the canonical leaf hash for an allocation:
// keccak256 of address (20 bytes) followed by each id as uint256, in the
// published order.
func EncodeLeaf(account common.Address, ids []uint64) common.Hash {
	packed := make([]byte, 0, 20+32*len(ids))
	packed = append(packed, account.Bytes()...)
	for _, id := range ids {
		packed = append(packed, common.BigToHash(new(big.Int).SetUint64(id)).Bytes()...)
	}
	return crypto.Keccak256Hash(packed)
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

// Verify walks the proof from leaf to root using sorted-pair hashing.
func Verify(leaf common.Hash, proof []common.Hash, root common.Hash) error {
	node := leaf
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	if node != root {
		return ErrInvalidProof
	}
	return nil
}

// Tree is the off-chain side of the protocol: it builds the root the
// operator publishes and the proofs handed out to claimants. It lives here
// so the CLI tooling and the tests share one implementation with Verify.
type Tree struct {
	root   common.Hash
	leaves []common.Hash
	levels [][]common.Hash
}

// BuildTree constructs a sorted-pair Merkle tree over the entries' leaf
// hashes. Leaves are sorted so the root does not depend on entry order;
// with an odd number of nodes the last one is promoted unhashed.
func BuildTree(entries []Entry) *Tree {
	leaves := make([]common.Hash, len(entries))
	for i, e := range entries {
		leaves[i] = EncodeLeaf(e.Account, e.Ids)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i].Bytes(), leaves[j].Bytes()) < 0
	})

	levels := [][]common.Hash{leaves}
	level := leaves
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}

	t := &Tree{leaves: leaves, levels: levels}
	if len(level) == 1 {
		t.root = level[0]
	}
	return t
}

// Root returns the published root. Zero for an empty tree.
func (t *Tree) Root() common.Hash {
	return t.root
}

// Proof returns the sibling path for the given entry, or ErrInvalidProof
// if the entry is not part of the tree.
func (t *Tree) Proof(account common.Address, ids []uint64) ([]common.Hash, error) {
	leaf := EncodeLeaf(account, ids)
	idx := -1
	for i, l := range t.leaves {
		if l == leaf {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrInvalidProof
	}

	var proof []common.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof, nil
}
