// Package digram maintains the index of digrams (adjacent symbol pairs)
// currently present anywhere in the grammar, used to enforce that no digram
// occurs more than once (rule utility aside).
package digram

import "github.com/dekarrin/sequitur/internal/symbol"

type pairKey struct {
	first, second symbol.Key
}

// Index maps each digram present in the grammar to the node that begins its
// (most recently recorded) occurrence. A digram is the pair (n, n.Next());
// guard symbols (Head/Tail) never begin or end a digram and are rejected by
// every method here.
type Index[T comparable] struct {
	entries map[pairKey]*symbol.Node[T]
}

// New returns an empty digram index.
func New[T comparable]() *Index[T] {
	return &Index[T]{entries: make(map[pairKey]*symbol.Node[T])}
}

func keyFor[T comparable](n *symbol.Node[T]) (pairKey, bool) {
	if n == nil || n.Next() == nil {
		return pairKey{}, false
	}
	if n.Sym.IsGuard() || n.Next().Sym.IsGuard() {
		return pairKey{}, false
	}
	return pairKey{
		first:  symbol.KeyOf(n.Sym),
		second: symbol.KeyOf(n.Next().Sym),
	}, true
}

// TryInsert records the digram beginning at n if no other occurrence of
// that digram is currently indexed, and reports whether one already was.
// When one was, the node that begins the existing occurrence is returned so
// the caller can merge the two occurrences into a rule; the index is left
// unchanged in that case (the existing entry still wins until the caller
// acts on the match and removes it explicitly).
func (idx *Index[T]) TryInsert(n *symbol.Node[T]) (existing *symbol.Node[T], found bool) {
	key, ok := keyFor(n)
	if !ok {
		return nil, false
	}
	if match, present := idx.entries[key]; present {
		return match, true
	}
	idx.entries[key] = n
	return nil, false
}

// Set unconditionally records n as the occurrence of the digram beginning
// at n, overwriting whatever occurrence (if any) was indexed for it before.
// Used when a digram is being folded into a new or existing rule and the
// index must now point at the freshly placed occurrence instead of either
// of the two it replaced.
func (idx *Index[T]) Set(n *symbol.Node[T]) {
	key, ok := keyFor(n)
	if !ok {
		return
	}
	idx.entries[key] = n
}

// RemoveIfPointing deletes the index entry for the digram beginning at n,
// but only if that entry currently points at n itself. This guards against
// removing a newer occurrence's entry when an older, now-stale node that
// happens to hash to the same digram is being torn down.
func (idx *Index[T]) RemoveIfPointing(n *symbol.Node[T]) {
	key, ok := keyFor(n)
	if !ok {
		return
	}
	if idx.entries[key] == n {
		delete(idx.entries, key)
	}
}

// Len reports the number of digrams currently indexed.
func (idx *Index[T]) Len() int {
	return len(idx.entries)
}
