// Package bitset implements a compact set of small non-negative integers,
// used by the inventory ledger to record which raw ids of a claim lane have
// already been minted. A claim-record bit, once set, is never cleared.
//
// The set grows lazily: testing a bit beyond the current length returns
// false without allocating, and setting a bit extends the backing slice to
// cover it. This keeps lanes with sparse claims cheap.
package bitset

// Set is a growable bitmap indexed from 0.
type Set struct {
	words []uint64
}

// New returns a Set with capacity for at least n bits pre-allocated.
// n may be 0; the set grows on demand either way.
func New(n uint64) *Set {
	return &Set{
		words: make([]uint64, (n+63)/64),
	}
}

// FromWords reconstructs a Set from its raw backing words, as produced by
// Words(). The slice is taken over, not copied.
func FromWords(words []uint64) *Set {
	return &Set{words: words}
}

// Words exposes the raw backing words for serialization.
func (s *Set) Words() []uint64 {
	return s.words
}

// Test reports whether bit i is set.
func (s *Set) Test(i uint64) bool {
	w := i / 64
	if w >= uint64(len(s.words)) {
		return false
	}
	return s.words[w]&(1<<(i%64)) != 0
}

// Set sets bit i, growing the backing slice if needed.
func (s *Set) Set(i uint64) {
	w := i / 64
	for uint64(len(s.words)) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << (i % 64)
}

// Count returns the number of set bits.
func (s *Set) Count() uint64 {
	var n uint64
	for _, w := range s.words {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// NextClear returns the lowest index >= from whose bit is clear.
// The sweep paths use it to skip over already-claimed ids without
// re-scanning resolved ranges.
func (s *Set) NextClear(from uint64) uint64 {
	i := from
	for {
		w := i / 64
		if w >= uint64(len(s.words)) {
			return i
		}
		if s.words[w]&(1<<(i%64)) == 0 {
			return i
		}
		i++
	}
}

// Copy returns a deep copy of the set. The backing slice is duplicated so
// the copy can diverge from the original.
func (s *Set) Copy() *Set {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return &Set{words: words}
}
