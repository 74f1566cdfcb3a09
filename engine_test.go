package sequitur

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_PushStringRoundTrips(t *testing.T) {
	e := New[byte]()
	PushString(e, "abcabcabc")

	assert.Equal(t, []byte("abcabcabc"), Flatten(e))
	assert.Equal(t, 9, e.Size())
}

func TestEngine_PushBytesRoundTrips(t *testing.T) {
	e := New[byte]()
	PushBytes(e, []byte("mississippi river"))

	assert.Equal(t, []byte("mississippi river"), Flatten(e))
}

func TestEngine_FlattenReverseIsMirrorImage(t *testing.T) {
	e := New[byte]()
	PushString(e, "abcdbcabcd")

	forward := Flatten(e)
	backward := FlattenReverse(e)

	require.Len(t, backward, len(forward))
	for i := range forward {
		assert.Equal(t, forward[i], backward[len(backward)-1-i])
	}
}

func TestEngine_StatsReflectsRuleFormation(t *testing.T) {
	e := New[byte]()
	before := e.Stats()
	assert.Equal(t, 0, before.Length)
	assert.Equal(t, 1, before.RuleCount) // just the start rule

	PushString(e, "abcabcabc")
	after := e.Stats()

	assert.Equal(t, 9, after.Length)
	assert.Greater(t, after.RuleCount, 1)
}

func TestEngine_RunesAsTerminalAlphabet(t *testing.T) {
	e := New[rune]()
	for _, r := range "naïve naïve naïve" {
		e.PushBack(r)
	}

	var got []rune
	end := e.End()
	for it := e.Begin(); !it.Equal(end); it.Next() {
		v, _ := it.Value()
		got = append(got, v)
	}

	assert.Equal(t, []rune("naïve naïve naïve"), got)
}
