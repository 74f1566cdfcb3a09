package digram

import (
	"testing"

	"github.com/dekarrin/sequitur/internal/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func two(a, b byte) (*symbol.Node[byte], *symbol.Node[byte]) {
	n1 := symbol.NewNode(symbol.NewTerminal(a))
	n2 := symbol.NewNode(symbol.NewTerminal(b))
	n1.JoinAfter(n2)
	return n1, n2
}

func TestTryInsert_FirstOccurrenceNotFound(t *testing.T) {
	idx := New[byte]()
	n1, _ := two('a', 'b')

	existing, found := idx.TryInsert(n1)

	assert.False(t, found)
	assert.Nil(t, existing)
	assert.Equal(t, 1, idx.Len())
}

func TestTryInsert_SecondOccurrenceFound(t *testing.T) {
	idx := New[byte]()
	n1, _ := two('a', 'b')
	m1, _ := two('a', 'b')

	idx.TryInsert(n1)
	existing, found := idx.TryInsert(m1)

	require.True(t, found)
	assert.Equal(t, n1, existing)
	assert.Equal(t, 1, idx.Len())
}

func TestTryInsert_RejectsGuardDigrams(t *testing.T) {
	idx := New[byte]()
	head := symbol.NewNode(symbol.NewHead[byte](0))
	term := symbol.NewNode(symbol.NewTerminal(byte('a')))
	head.JoinAfter(term)

	_, found := idx.TryInsert(head)

	assert.False(t, found)
	assert.Equal(t, 0, idx.Len())
}

func TestTryInsert_RejectsLastNodeWithNoNext(t *testing.T) {
	idx := New[byte]()
	n := symbol.NewNode(symbol.NewTerminal(byte('a')))

	_, found := idx.TryInsert(n)

	assert.False(t, found)
	assert.Equal(t, 0, idx.Len())
}

func TestRemoveIfPointing_RemovesMatchingEntry(t *testing.T) {
	idx := New[byte]()
	n1, _ := two('a', 'b')
	idx.TryInsert(n1)

	idx.RemoveIfPointing(n1)

	assert.Equal(t, 0, idx.Len())
}

func TestRemoveIfPointing_LeavesStaleEntryForDifferentNode(t *testing.T) {
	idx := New[byte]()
	n1, _ := two('a', 'b')
	m1, _ := two('a', 'b')
	idx.TryInsert(n1)

	idx.RemoveIfPointing(m1)

	assert.Equal(t, 1, idx.Len())
}

func TestDistinctDigramsIndexedSeparately(t *testing.T) {
	idx := New[byte]()
	n1, _ := two('a', 'b')
	n2, _ := two('b', 'a')

	idx.TryInsert(n1)
	_, found := idx.TryInsert(n2)

	assert.False(t, found)
	assert.Equal(t, 2, idx.Len())
}
