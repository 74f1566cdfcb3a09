package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_ValueInvalidAtEnd(t *testing.T) {
	e := build(t, "abc")
	end := e.End()

	_, ok := end.Value()
	assert.False(t, ok)
}

func TestIterator_ValueInvalidAtREnd(t *testing.T) {
	e := build(t, "abc")
	rend := e.REnd()

	_, ok := rend.Value()
	assert.False(t, ok)
}

func TestIterator_ForwardThenBackwardReturnsToStart(t *testing.T) {
	e := build(t, "abcabcabc")
	it := e.Begin()
	first := it.current

	it.Next()
	it.Next()
	it.Prev()
	it.Prev()

	assert.Equal(t, first, it.current)
}

func TestIterator_BeginNotEqualEndForNonEmpty(t *testing.T) {
	e := build(t, "a")
	begin := e.Begin()
	end := e.End()

	assert.False(t, begin.Equal(end))
}

func TestIterator_BeginEqualsEndForEmpty(t *testing.T) {
	e := New[byte]()
	begin := e.Begin()
	end := e.End()

	assert.True(t, begin.Equal(end))
}

func TestIterator_WalksThroughRuleReferencesTransparently(t *testing.T) {
	e := build(t, "abcabcabc")
	require.Greater(t, len(e.Rules()), 1, "expected at least one rule to form")

	var got []byte
	end := e.End()
	for it := e.Begin(); !it.Equal(end); it.Next() {
		v, ok := it.Value()
		require.True(t, ok)
		got = append(got, v)
	}

	assert.Equal(t, []byte("abcabcabc"), got)
}
