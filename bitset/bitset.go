// Package bitset is a minimal fixed-size bit set used for visited-token and
// visited-pool tracking in the path search. Indexes are ints because they
// come from dense graph indexes.
package bitset

// BitSet is a fixed-capacity set of small non-negative integers.
type BitSet []uint64

// New returns a BitSet able to hold indexes [0, n).
func New(n int) BitSet {
	return make(BitSet, (n+63)/64)
}

// IsSet reports whether index is in the set.
func (b BitSet) IsSet(index int) bool {
	return b[index/64]&(uint64(1)<<(index%64)) != 0
}

// Set adds index to the set.
func (b BitSet) Set(index int) {
	b[index/64] |= uint64(1) << (index % 64)
}

// Unset removes index from the set.
func (b BitSet) Unset(index int) {
	b[index/64] &^= uint64(1) << (index % 64)
}

// Clear removes every index.
func (b BitSet) Clear() {
	for i := range b {
		b[i] = 0
	}
}

// Clone returns an independent copy.
func (b BitSet) Clone() BitSet {
	c := make(BitSet, len(b))
	copy(c, b)
	return c
}
